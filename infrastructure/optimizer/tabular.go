// Package optimizer provides a tabular Q-learning implementation of
// the policy.Optimizer contract. Observations are discretized into
// coarse buckets so a lookup table can cover the state space.
package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/adversary-go/domain/policy"
	"github.com/felixgeelhaar/adversary-go/domain/sim"
)

// Hyperparameters chosen for short self-play iterations.
const (
	defaultAlpha   = 0.1
	defaultGamma   = 0.95
	defaultEpsilon = 0.15
)

// checkpointFormat is the persisted checkpoint layout.
type checkpointFormat struct {
	Alpha   float64              `json:"alpha"`
	Gamma   float64              `json:"gamma"`
	Epsilon float64              `json:"epsilon"`
	Table   map[string][]float64 `json:"table"`
}

// Tabular is a seedable epsilon-greedy Q-learning optimizer.
type Tabular struct {
	alpha   float64
	gamma   float64
	epsilon float64

	table map[string][sim.ActionCount]float64
	rng   *rand.Rand
}

var _ policy.Optimizer = (*Tabular)(nil)

// Option configures a Tabular optimizer.
type Option func(*Tabular)

// WithLearningRate sets the Q-update step size.
func WithLearningRate(alpha float64) Option {
	return func(t *Tabular) { t.alpha = alpha }
}

// WithDiscount sets the reward discount factor.
func WithDiscount(gamma float64) Option {
	return func(t *Tabular) { t.gamma = gamma }
}

// WithExploration sets the epsilon-greedy exploration rate.
func WithExploration(epsilon float64) Option {
	return func(t *Tabular) { t.epsilon = epsilon }
}

// NewTabular creates an optimizer seeded from the given value. The
// same seed and environment produce the same learned table.
func NewTabular(seed int64, opts ...Option) *Tabular {
	t := &Tabular{
		alpha:   defaultAlpha,
		gamma:   defaultGamma,
		epsilon: defaultEpsilon,
		table:   make(map[string][sim.ActionCount]float64),
		rng:     rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// States reports the number of distinct discretized states seen.
func (t *Tabular) States() int { return len(t.table) }

// discretize maps an observation onto a compact state key. Continuous
// features collapse into small buckets so nearby observations share a
// table row.
func discretize(obs sim.Observation) string {
	var b strings.Builder
	for i, v := range obs {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(strconv.Itoa(bucket(v)))
	}
	return b.String()
}

// bucket collapses a feature value into one of a handful of bins.
func bucket(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v <= 1:
		// Normalized features get finer resolution.
		return 1 + int(math.Min(v*4, 3))
	case v <= 10:
		return 5
	case v <= 50:
		return 6
	case v <= 100:
		return 7
	default:
		return 8
	}
}

// greedy returns the highest-valued action for a state, breaking ties
// toward the lowest action index so selection is stable.
func (t *Tabular) greedy(key string) int {
	row := t.table[key]
	best := 0
	for a := 1; a < sim.ActionCount; a++ {
		if row[a] > row[best] {
			best = a
		}
	}
	return best
}

// Predict selects an action for an observation. Deterministic mode is
// pure greedy; otherwise exploration applies at rate epsilon.
func (t *Tabular) Predict(obs sim.Observation, deterministic bool) int {
	key := discretize(obs)
	if !deterministic && t.rng.Float64() < t.epsilon {
		return t.rng.Intn(sim.ActionCount)
	}
	return t.greedy(key)
}

// update applies the Q-learning rule to one transition.
func (t *Tabular) update(tr policy.Transition) {
	key := discretize(tr.Observation)
	row := t.table[key]

	target := tr.Reward
	if !tr.Done() {
		nextRow := t.table[discretize(tr.Next)]
		best := nextRow[0]
		for a := 1; a < sim.ActionCount; a++ {
			if nextRow[a] > best {
				best = nextRow[a]
			}
		}
		target += t.gamma * best
	}

	row[tr.Action] += t.alpha * (target - row[tr.Action])
	t.table[key] = row
}

// Learn runs epsilon-greedy episodes against env for the given number
// of environment steps.
func (t *Tabular) Learn(ctx context.Context, env policy.Environment, timesteps int, hooks policy.Hooks) error {
	obs, _ := env.Reset(t.rng.Int63())
	episode := 0
	episodeSteps := 0
	episodeReward := 0.0

	for step := 0; step < timesteps; step++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training interrupted: %w", err)
		}

		action, proposed := hooks.Propose(obs)
		if !proposed || action < 0 || action >= sim.ActionCount {
			action = t.Predict(obs, false)
		}
		res, err := env.Step(action)
		if err != nil {
			return fmt.Errorf("environment step failed: %w", err)
		}

		tr := policy.Transition{
			Observation: obs,
			Action:      action,
			Reward:      res.Reward,
			Next:        res.Observation,
			Terminated:  res.Terminated,
			Truncated:   res.Truncated,
		}
		t.update(tr)
		hooks.Step(tr)

		episodeSteps++
		episodeReward += res.Reward
		obs = res.Observation

		if tr.Done() {
			hooks.EpisodeEnd(policy.EpisodeSummary{
				Episode: episode,
				Steps:   episodeSteps,
				Reward:  episodeReward,
			})
			episode++
			episodeSteps = 0
			episodeReward = 0
			obs, _ = env.Reset(t.rng.Int63())
		}
	}
	return nil
}

// Save writes the policy table to path as JSON, through a temp file so
// a crash never leaves a truncated checkpoint.
func (t *Tabular) Save(path string) error {
	doc := checkpointFormat{
		Alpha:   t.alpha,
		Gamma:   t.gamma,
		Epsilon: t.epsilon,
		Table:   make(map[string][]float64, len(t.table)),
	}
	for key, row := range t.table {
		values := make([]float64, sim.ActionCount)
		copy(values, row[:])
		doc.Table[key] = values
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Load replaces the policy table with the checkpoint at path.
func (t *Tabular) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var doc checkpointFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	table := make(map[string][sim.ActionCount]float64, len(doc.Table))
	for key, values := range doc.Table {
		if len(values) != sim.ActionCount {
			return fmt.Errorf("checkpoint row %q has %d actions, want %d", key, len(values), sim.ActionCount)
		}
		var row [sim.ActionCount]float64
		copy(row[:], values)
		table[key] = row
	}

	t.alpha = doc.Alpha
	t.gamma = doc.Gamma
	t.epsilon = doc.Epsilon
	t.table = table
	return nil
}
