package sim

// PrivilegeLevel is the attacker's access tier. It only ever takes
// the values PrivilegeNone, PrivilegeUser, PrivilegeRoot and is
// non-decreasing within an episode.
type PrivilegeLevel float64

const (
	PrivilegeNone PrivilegeLevel = 0.0
	PrivilegeUser PrivilegeLevel = 0.5
	PrivilegeRoot PrivilegeLevel = 1.0
)

// Name returns the tier name used in advisory prompts and rendering.
func (p PrivilegeLevel) Name() string {
	switch p {
	case PrivilegeUser:
		return "user"
	case PrivilegeRoot:
		return "root"
	default:
		return "none"
	}
}

// AttackState is the attacker-mode episode state. It is mutated only
// by the simulator's action execution and reset at episode start.
type AttackState struct {
	ConnectionActive   bool
	CommandsExecuted   int
	FilesAccessed      int
	PrivilegeLevel     PrivilegeLevel
	FailedAttempts     int
	SuccessfulExploits int

	// actionContrib accumulates the per-action detection increments.
	// It only grows, which keeps the detection score monotone.
	actionContrib float64
}

// raisePrivilege lifts the privilege tier without ever lowering it.
func (s *AttackState) raisePrivilege(to PrivilegeLevel) {
	if to > s.PrivilegeLevel {
		s.PrivilegeLevel = to
	}
}

// DefenseState is the defender-mode episode state. All counters are
// non-negative and mutated only by defender action execution.
type DefenseState struct {
	ActiveConnections  int
	FailedLogins       int
	SuspiciousCommands int
	IPsBlocked         int
	AttacksDetected    int
	AttacksMitigated   int
	FalsePositives     int
}
