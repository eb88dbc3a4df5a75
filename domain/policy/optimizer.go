// Package policy defines the contract between the simulation engine
// and the external policy-optimization algorithm.
package policy

import (
	"context"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
)

// Environment is the simulator surface an optimizer trains against.
// Both the simulated engine and the live session-driven variant
// implement it.
type Environment interface {
	// Reset starts a new episode seeded from the given value.
	Reset(seed int64) (sim.Observation, sim.Info)

	// ResetRandom starts a new episode with an entropy-derived seed.
	ResetRandom() (sim.Observation, sim.Info)

	// Step executes one discrete action in [0, sim.ActionCount).
	Step(action int) (sim.StepResult, error)

	// Mode reports which side of the engagement this environment models.
	Mode() sim.Mode

	// MaxSteps reports the episode length bound.
	MaxSteps() int
}

// Optimizer produces an updated decision policy from collected
// transitions. How parameters are updated internally is not a concern
// of this module; any reward-maximizing trainer satisfies the
// contract.
type Optimizer interface {
	// Learn collects transitions from env for the given number of
	// environment steps and improves the policy. Hooks observe the
	// step loop; a nil hook field is skipped.
	Learn(ctx context.Context, env Environment, timesteps int, hooks Hooks) error

	// Predict selects an action for the observation. Deterministic
	// selection is greedy with no exploration.
	Predict(obs sim.Observation, deterministic bool) int

	// Save persists the current policy to path.
	Save(path string) error

	// Load replaces the current policy with the one at path.
	Load(path string) error
}

// Transition is one (observation, action, reward, next, done) tuple
// produced by the environment during training.
type Transition struct {
	Observation sim.Observation
	Action      int
	Reward      float64
	Next        sim.Observation
	Terminated  bool
	Truncated   bool
}

// Done reports whether the transition ended its episode.
func (t Transition) Done() bool {
	return t.Terminated || t.Truncated
}

// EpisodeSummary aggregates one completed training episode.
type EpisodeSummary struct {
	Episode int
	Steps   int
	Reward  float64
}

// Hooks are event callbacks into the optimizer's step loop. They are
// plain function references; implementations attach whatever state
// they need via closures.
type Hooks struct {
	OnStep       func(Transition)
	OnEpisodeEnd func(EpisodeSummary)

	// ProposeAction, when set, is consulted before the optimizer picks
	// an exploration action. Returning ok substitutes the proposed
	// action for that step; the optimizer still learns from the
	// resulting transition.
	ProposeAction func(obs sim.Observation) (int, bool)
}

// Step invokes the OnStep hook if present.
func (h Hooks) Step(t Transition) {
	if h.OnStep != nil {
		h.OnStep(t)
	}
}

// EpisodeEnd invokes the OnEpisodeEnd hook if present.
func (h Hooks) EpisodeEnd(s EpisodeSummary) {
	if h.OnEpisodeEnd != nil {
		h.OnEpisodeEnd(s)
	}
}

// Propose invokes the ProposeAction hook if present.
func (h Hooks) Propose(obs sim.Observation) (int, bool) {
	if h.ProposeAction == nil {
		return 0, false
	}
	return h.ProposeAction(obs)
}
