package sim

// ActionCount is the size of the discrete action space in both modes.
const ActionCount = 10

// Attacker actions, in wire order.
const (
	AttackBruteForce = iota
	AttackEnumerate
	AttackRecon
	AttackDownload
	AttackEscalate
	AttackBackdoor
	AttackModifyFiles
	AttackExfiltrate
	AttackPortScan
	AttackWait
)

// Defender actions, in wire order.
const (
	DefendMonitor = iota
	DefendRateLimit
	DefendTempBlock
	DefendPermBlock
	DefendDecoy
	DefendRotateConfig
	DefendAlert
	DefendIsolate
	DefendReset
	DefendDeception
)

var attackerActionNames = [ActionCount]string{
	"brute_force", "enumerate", "recon", "download_malware",
	"privilege_escalation", "create_backdoor", "modify_files",
	"exfiltrate", "port_scan", "wait",
}

var defenderActionNames = [ActionCount]string{
	"monitor", "rate_limit", "temp_block", "perm_block",
	"deploy_decoy", "rotate_config", "alert", "isolate",
	"reset", "deception",
}

// ActionName returns the human-readable name of an action in the
// given mode, or "unknown" for an out-of-range index.
func ActionName(mode Mode, action int) string {
	if action < 0 || action >= ActionCount {
		return "unknown"
	}
	if mode == ModeAttacker {
		return attackerActionNames[action]
	}
	return defenderActionNames[action]
}
