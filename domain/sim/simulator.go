package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultMaxSteps bounds an episode when no override is given.
const DefaultMaxSteps = 100

// Fixed penalties applied when an action's side effects fault.
const (
	attackerFaultPenalty = -10.0
	defenderFaultPenalty = -8.0
)

// Info carries per-step diagnostic fields alongside the observation.
type Info map[string]any

// StepResult is the outcome of one simulator step.
type StepResult struct {
	Observation Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Done reports whether the episode ended this step.
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// FaultInjector simulates I/O-level breakage for a step. A non-nil
// return is treated as an ActionFault: the step yields the fixed
// penalty and the episode continues. The live session-driven variant
// surfaces its transport failures through the same path.
type FaultInjector func(step, action int) error

// MissedAttackCounter reports attacks that went undetected this step.
// The reference counter always reports zero; the intended comparison
// of actual versus detected attacks is not yet specified.
type MissedAttackCounter func(st *DefenseState) int

// ZeroMissedAttacks is the default MissedAttackCounter.
func ZeroMissedAttacks(*DefenseState) int { return 0 }

// Simulator is the episodic Markov process for one mode. It owns
// exactly one episode at a time; Reset discards the previous episode.
// A Simulator is not safe for concurrent use and is never shared
// across agents.
type Simulator struct {
	mode     Mode
	maxSteps int
	tun      Tunables

	step    int
	rng     *rand.Rand
	attack  AttackState
	defense DefenseState
	closed  bool

	faultFn  FaultInjector
	missedFn MissedAttackCounter
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMaxSteps overrides the episode length bound.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithTunables overrides the scenario parameters.
func WithTunables(t Tunables) Option {
	return func(s *Simulator) { s.tun = t }
}

// WithFaultInjector installs a fault source for action execution.
func WithFaultInjector(fn FaultInjector) Option {
	return func(s *Simulator) { s.faultFn = fn }
}

// WithMissedAttackCounter overrides the missed-attack accounting.
func WithMissedAttackCounter(fn MissedAttackCounter) Option {
	return func(s *Simulator) { s.missedFn = fn }
}

// New creates a simulator for the given mode.
func New(mode Mode, opts ...Option) (*Simulator, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	s := &Simulator{
		mode:     mode,
		maxSteps: DefaultMaxSteps,
		tun:      DefaultTunables(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		missedFn: ZeroMissedAttacks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mode returns the simulator's mode.
func (s *Simulator) Mode() Mode { return s.mode }

// MaxSteps returns the episode length bound.
func (s *Simulator) MaxSteps() int { return s.maxSteps }

// CurrentStep returns the number of steps taken this episode.
func (s *Simulator) CurrentStep() int { return s.step }

// AttackState returns a copy of the attacker-mode state.
func (s *Simulator) AttackState() AttackState { return s.attack }

// DefenseState returns a copy of the defender-mode state.
func (s *Simulator) DefenseState() DefenseState { return s.defense }

// Reset starts a new episode seeded from the given value and returns
// the initial observation. The per-episode random source makes runs
// reproducible given a seed.
func (s *Simulator) Reset(seed int64) (Observation, Info) {
	s.rng = rand.New(rand.NewSource(seed))
	return s.reset()
}

// ResetRandom starts a new episode with an entropy-derived seed.
func (s *Simulator) ResetRandom() (Observation, Info) {
	s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	return s.reset()
}

func (s *Simulator) reset() (Observation, Info) {
	s.step = 0
	s.closed = false

	switch s.mode {
	case ModeAttacker:
		s.attack = AttackState{}
	case ModeDefender:
		s.defense = DefenseState{
			ActiveConnections:  1 + s.rng.Intn(5),
			FailedLogins:       s.rng.Intn(21),
			SuspiciousCommands: s.rng.Intn(11),
		}
	}

	return s.observation(), Info{"step": 0, "mode": s.mode.String()}
}

// Step executes exactly one discrete action. Out-of-range actions are
// the only error: every other failure is absorbed into the reward
// signal so training is never interrupted.
func (s *Simulator) Step(action int) (StepResult, error) {
	if s.closed {
		return StepResult{}, ErrClosed
	}
	if action < 0 || action >= ActionCount {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}

	s.step++

	var out outcome
	if fault := s.injectFault(action); fault != nil {
		out = s.faultOutcome(action, fault)
	} else if s.mode == ModeAttacker {
		out = s.executeAttacker(action)
	} else {
		out = s.executeDefender(action)
	}

	truncated := s.step >= s.maxSteps && !out.terminated
	out.info["step"] = s.step

	return StepResult{
		Observation: s.observation(),
		Reward:      out.reward,
		Terminated:  out.terminated,
		Truncated:   truncated,
		Info:        out.info,
	}, nil
}

// outcome is the internal result of action execution, converted to a
// StepResult before crossing the public boundary.
type outcome struct {
	reward     float64
	terminated bool
	info       Info
}

func (s *Simulator) injectFault(action int) *ActionFault {
	if s.faultFn == nil {
		return nil
	}
	if err := s.faultFn(s.step, action); err != nil {
		return &ActionFault{Op: ActionName(s.mode, action), Err: err}
	}
	return nil
}

func (s *Simulator) faultOutcome(action int, fault *ActionFault) outcome {
	penalty := attackerFaultPenalty
	if s.mode == ModeDefender {
		penalty = defenderFaultPenalty
	}
	return outcome{
		reward: penalty,
		info: Info{
			"action":      action,
			"action_name": ActionName(s.mode, action),
			"error":       fault.Error(),
		},
	}
}

func (s *Simulator) observation() Observation {
	if s.mode == ModeAttacker {
		return s.attackerObservation()
	}
	return s.defenderObservation()
}

// Render prints a diagnostic view of the episode. It has no effect on
// correctness.
func (s *Simulator) Render() string {
	if s.mode == ModeAttacker {
		return fmt.Sprintf(
			"step %d/%d mode=%s connection=%v commands=%d privilege=%s detection=%.2f",
			s.step, s.maxSteps, s.mode,
			s.attack.ConnectionActive, s.attack.CommandsExecuted,
			s.attack.PrivilegeLevel.Name(), s.detectionScore(),
		)
	}
	return fmt.Sprintf(
		"step %d/%d mode=%s blocked=%d detected=%d false_positives=%d",
		s.step, s.maxSteps, s.mode,
		s.defense.IPsBlocked, s.defense.AttacksDetected, s.defense.FalsePositives,
	)
}

// Close releases the episode. Further steps fail with ErrClosed until
// the next Reset.
func (s *Simulator) Close() {
	s.closed = true
	s.attack.ConnectionActive = false
}
