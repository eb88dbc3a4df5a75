// Package application orchestrates self-play training: it binds
// policies to simulated environments, alternates training between the
// adversaries, evaluates them, and manages checkpoints.
package application

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/felixgeelhaar/adversary-go/domain/policy"
	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
	"github.com/felixgeelhaar/adversary-go/infrastructure/advisor"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// defaultEvalEpisodes is the episode count for evaluation rollouts.
const defaultEvalEpisodes = 20

// Agent binds one side's policy to its environment.
type Agent struct {
	mode       sim.Mode
	optimizer  policy.Optimizer
	env        policy.Environment
	consultant *advisor.Consultant
}

// AgentConfig configures an agent.
type AgentConfig struct {
	Mode      sim.Mode
	Optimizer policy.Optimizer
	Env       policy.Environment

	// Consultant optionally supplies advisory actions during attacker
	// prediction. Ignored for defender agents.
	Consultant *advisor.Consultant
}

// NewAgent creates an agent from the given configuration.
func NewAgent(config AgentConfig) (*Agent, error) {
	if !config.Mode.IsValid() {
		return nil, sim.ErrInvalidMode
	}
	if config.Optimizer == nil {
		return nil, errors.New("optimizer is required")
	}
	if config.Env == nil {
		return nil, errors.New("environment is required")
	}
	if config.Env.Mode() != config.Mode {
		return nil, fmt.Errorf("environment mode %s does not match agent mode %s", config.Env.Mode(), config.Mode)
	}
	return &Agent{
		mode:       config.Mode,
		optimizer:  config.Optimizer,
		env:        config.Env,
		consultant: config.Consultant,
	}, nil
}

// Mode returns the agent's side of the engagement.
func (a *Agent) Mode() sim.Mode { return a.mode }

// Optimizer returns the agent's policy optimizer.
func (a *Agent) Optimizer() policy.Optimizer { return a.optimizer }

// Train improves the policy for the given number of environment steps.
// An attacker with an enabled consultant occasionally substitutes the
// advisor's suggestion for the exploration action.
func (a *Agent) Train(ctx context.Context, timesteps int) error {
	var episodes int
	hooks := policy.Hooks{
		OnEpisodeEnd: func(s policy.EpisodeSummary) { episodes++ },
		ProposeAction: func(obs sim.Observation) (int, bool) {
			return a.consult(ctx)
		},
	}
	if err := a.optimizer.Learn(ctx, a.env, timesteps, hooks); err != nil {
		return fmt.Errorf("%s training failed: %w", a.mode, err)
	}
	logging.Debug().
		Add(logging.Component("agent")).
		Add(logging.SimMode(a.mode)).
		Add(logging.Timesteps(timesteps)).
		Add(logging.Episodes(episodes)).
		Msg("training segment complete")
	return nil
}

// consult asks the advisor for an action when one is attached and this
// is the attacker side. The consultant applies its own probability
// gate internally.
func (a *Agent) consult(ctx context.Context) (int, bool) {
	if a.mode != sim.ModeAttacker || a.consultant == nil {
		return 0, false
	}
	env, ok := a.env.(*sim.Simulator)
	if !ok {
		return 0, false
	}
	action, ok := a.consultant.Suggest(ctx, env.AttackState(), env.CurrentStep())
	if !ok || action < 0 || action >= sim.ActionCount {
		return 0, false
	}
	return action, true
}

// Predict selects the next action. On non-deterministic calls an
// attacker with an enabled consultant occasionally takes the advisor's
// suggestion instead of the policy's choice; deterministic calls always
// go straight to the policy.
func (a *Agent) Predict(ctx context.Context, obs sim.Observation, deterministic bool) int {
	if !deterministic {
		if action, ok := a.consult(ctx); ok {
			return action
		}
	}
	return a.optimizer.Predict(obs, deterministic)
}

// Save persists the policy to path.
func (a *Agent) Save(path string) error {
	return a.optimizer.Save(path)
}

// Load replaces the policy with the checkpoint at path.
func (a *Agent) Load(path string) error {
	return a.optimizer.Load(path)
}

// rollout plays one deterministic episode and returns its reward,
// length, and the final step info values accumulated across the run.
type rolloutStats struct {
	reward   float64
	length   int
	detected bool
	exploits int

	attacksDetected  int
	attacksMitigated int
	falsePositives   int
}

func (a *Agent) rollout(ctx context.Context, seed int64) (rolloutStats, error) {
	var stats rolloutStats
	obs, _ := a.env.Reset(seed)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		// Evaluation is pure policy: the advisor never participates so
		// rollouts stay reproducible.
		action := a.optimizer.Predict(obs, true)
		res, err := a.env.Step(action)
		if err != nil {
			return stats, err
		}
		stats.reward += res.Reward
		stats.length++
		if detected, ok := res.Info["detected"].(bool); ok && detected {
			stats.detected = true
		}
		if n, ok := res.Info["attacks_detected"].(int); ok {
			stats.attacksDetected += n
		}
		if n, ok := res.Info["attacks_mitigated"].(int); ok {
			stats.attacksMitigated += n
		}
		if n, ok := res.Info["false_positives"].(int); ok {
			stats.falsePositives += n
		}
		obs = res.Observation
		if res.Done() {
			break
		}
	}
	if env, ok := a.env.(*sim.Simulator); ok {
		stats.exploits = env.AttackState().SuccessfulExploits
	}
	return stats, nil
}

// EvaluateAttacker runs deterministic episodes and aggregates attacker
// metrics. Episode seeds derive from baseSeed so evaluations compare
// across iterations.
func (a *Agent) EvaluateAttacker(ctx context.Context, episodes int, baseSeed int64) (training.AttackerReport, error) {
	if a.mode != sim.ModeAttacker {
		return training.AttackerReport{}, fmt.Errorf("attacker evaluation on %s agent", a.mode)
	}
	if episodes <= 0 {
		episodes = defaultEvalEpisodes
	}

	rewards := make([]float64, 0, episodes)
	var totalLength, successes, detections int
	for i := 0; i < episodes; i++ {
		stats, err := a.rollout(ctx, baseSeed+int64(i))
		if err != nil {
			return training.AttackerReport{}, err
		}
		rewards = append(rewards, stats.reward)
		totalLength += stats.length
		if stats.exploits > 0 {
			successes++
		}
		if stats.detected {
			detections++
		}
	}

	mean, std := meanStd(rewards)
	return training.AttackerReport{
		Episodes:      episodes,
		MeanReward:    mean,
		StdReward:     std,
		MeanLength:    float64(totalLength) / float64(episodes),
		SuccessRate:   float64(successes) / float64(episodes),
		DetectionRate: float64(detections) / float64(episodes),
	}, nil
}

// EvaluateDefender runs deterministic episodes and aggregates defender
// metrics.
func (a *Agent) EvaluateDefender(ctx context.Context, episodes int, baseSeed int64) (training.DefenderReport, error) {
	if a.mode != sim.ModeDefender {
		return training.DefenderReport{}, fmt.Errorf("defender evaluation on %s agent", a.mode)
	}
	if episodes <= 0 {
		episodes = defaultEvalEpisodes
	}

	rewards := make([]float64, 0, episodes)
	var totalLength, detected, mitigated, falsePositives int
	for i := 0; i < episodes; i++ {
		stats, err := a.rollout(ctx, baseSeed+int64(i))
		if err != nil {
			return training.DefenderReport{}, err
		}
		rewards = append(rewards, stats.reward)
		totalLength += stats.length
		detected += stats.attacksDetected
		mitigated += stats.attacksMitigated
		falsePositives += stats.falsePositives
	}

	precision := 0.0
	if detected+falsePositives > 0 {
		precision = float64(detected) / float64(detected+falsePositives)
	}

	mean, std := meanStd(rewards)
	return training.DefenderReport{
		Episodes:         episodes,
		MeanReward:       mean,
		StdReward:        std,
		MeanLength:       float64(totalLength) / float64(episodes),
		AttacksDetected:  detected,
		FalsePositives:   falsePositives,
		Precision:        precision,
		AttacksMitigated: mitigated,
	}, nil
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
