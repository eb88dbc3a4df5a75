package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
	"github.com/felixgeelhaar/adversary-go/infrastructure/lineage"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
	"github.com/felixgeelhaar/adversary-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/sqlite"
)

// ErrRunActive indicates a training run is already in progress on this
// orchestrator.
var ErrRunActive = errors.New("training run already active")

// Self-play cadence defaults.
const (
	defaultIterations   = 10
	defaultTimesteps    = 5000
	checkpointCadence   = 2
	replayCadence       = 5
	defaultEvalBaseSeed = 10_000
)

// PhaseError wraps a fatal failure inside one phase of a run.
type PhaseError struct {
	Phase     training.Phase
	Iteration int
	Err       error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed at iteration %d: %v", e.Phase, e.Iteration, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// OrchestratorConfig configures a self-play orchestrator.
type OrchestratorConfig struct {
	Attacker *Agent
	Defender *Agent
	Lineage  *lineage.Manager
	Store    *filesystem.RunStore

	// Ledger optionally records iterations in SQLite.
	Ledger *sqlite.IterationStore

	// Iterations is the number of self-play iterations. Zero means 10.
	Iterations int
	// Timesteps is the per-role training budget per iteration. Zero
	// means 5000.
	Timesteps int
	// EvalEpisodes is the episode count per evaluation. Zero means 20.
	EvalEpisodes int
	// EvalBaseSeed anchors evaluation episode seeds so iterations
	// compare against identical scenarios.
	EvalBaseSeed int64
}

// Orchestrator alternates training between the attacker and defender,
// evaluating and checkpointing on a fixed cadence. One orchestrator
// admits one run at a time.
type Orchestrator struct {
	cfg      OrchestratorConfig
	attacker *Agent
	defender *Agent

	active  atomic.Bool
	stopped atomic.Bool

	history *training.History
}

// NewOrchestrator creates an orchestrator from the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Attacker == nil || cfg.Attacker.Mode() != sim.ModeAttacker {
		return nil, errors.New("attacker agent is required")
	}
	if cfg.Defender == nil || cfg.Defender.Mode() != sim.ModeDefender {
		return nil, errors.New("defender agent is required")
	}
	if cfg.Lineage == nil {
		return nil, errors.New("lineage manager is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("run store is required")
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = defaultIterations
	}
	if cfg.Timesteps == 0 {
		cfg.Timesteps = defaultTimesteps
	}
	if cfg.EvalEpisodes == 0 {
		cfg.EvalEpisodes = defaultEvalEpisodes
	}
	if cfg.EvalBaseSeed == 0 {
		cfg.EvalBaseSeed = defaultEvalBaseSeed
	}
	return &Orchestrator{
		cfg:      cfg,
		attacker: cfg.Attacker,
		defender: cfg.Defender,
		history:  &training.History{},
	}, nil
}

// History returns the iteration history collected so far.
func (o *Orchestrator) History() *training.History { return o.history }

// Stop requests a coarse stop: the run finishes its current iteration
// and then finalizes instead of starting the next one.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
}

// runSpec is the cadence and budget of one run variant.
type runSpec struct {
	rounds            int
	attackerTimesteps int
	defenderTimesteps int
	checkpointEvery   int
	replayEvery       int
}

// Run executes the self-play loop. A second concurrent call fails
// immediately with ErrRunActive. Any error inside a phase is fatal to
// the whole run.
func (o *Orchestrator) Run(ctx context.Context) (training.ProgressReport, error) {
	return o.run(ctx, runSpec{
		rounds:            o.cfg.Iterations,
		attackerTimesteps: o.cfg.Timesteps,
		defenderTimesteps: o.cfg.Timesteps,
		checkpointEvery:   checkpointCadence,
		replayEvery:       replayCadence,
	})
}

// RunAlternating executes the same phase structure with independent
// per-role timestep budgets and a checkpoint after every round. A zero
// timestep budget falls back to the configured default.
func (o *Orchestrator) RunAlternating(ctx context.Context, rounds, attackerTimesteps, defenderTimesteps int) (training.ProgressReport, error) {
	if rounds <= 0 {
		return training.ProgressReport{}, errors.New("rounds must be positive")
	}
	if attackerTimesteps <= 0 {
		attackerTimesteps = o.cfg.Timesteps
	}
	if defenderTimesteps <= 0 {
		defenderTimesteps = o.cfg.Timesteps
	}
	return o.run(ctx, runSpec{
		rounds:            rounds,
		attackerTimesteps: attackerTimesteps,
		defenderTimesteps: defenderTimesteps,
		checkpointEvery:   1,
		replayEvery:       replayCadence,
	})
}

func (o *Orchestrator) run(ctx context.Context, spec runSpec) (training.ProgressReport, error) {
	if !o.active.CompareAndSwap(false, true) {
		return training.ProgressReport{}, ErrRunActive
	}
	defer o.active.Store(false)
	o.stopped.Store(false)

	runID := uuid.New().String()
	started := time.Now()

	machine, err := statemachine.NewRunMachine()
	if err != nil {
		return training.ProgressReport{}, fmt.Errorf("failed to build run machine: %w", err)
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(runID, spec.rounds))
	interp.Start()

	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.RunID(runID)).
		Add(logging.Iteration(spec.rounds)).
		Add(logging.Timesteps(spec.attackerTimesteps)).
		Msg("self-play run starting")

	var lastAttacker training.AttackerReport
	var lastDefender training.DefenderReport

	for iter := 0; iter < spec.rounds; iter++ {
		// Stop requests and context cancellation apply only between
		// iterations; an iteration in flight always completes.
		if o.stopped.Load() || ctx.Err() != nil {
			logging.Info().
				Add(logging.Component("orchestrator")).
				Add(logging.RunID(runID)).
				Add(logging.Iteration(iter)).
				Msg("stop requested, finalizing early")
			break
		}

		attackerReport, defenderReport, err := o.iteration(ctx, interp, runID, iter, spec)
		if err != nil {
			return training.ProgressReport{}, err
		}
		lastAttacker = attackerReport
		lastDefender = defenderReport
	}

	if err := o.finalize(interp, runID); err != nil {
		return training.ProgressReport{}, err
	}

	report := training.ProgressReport{
		RunID:       runID,
		Iterations:  o.history.Len(),
		Attacker:    lastAttacker,
		Defender:    lastDefender,
		GeneratedAt: time.Now(),
	}
	if err := o.cfg.Store.SaveReport(report); err != nil {
		return training.ProgressReport{}, &PhaseError{Phase: training.PhaseFinalize, Iteration: o.history.Len(), Err: err}
	}

	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.RunID(runID)).
		Add(logging.Iteration(report.Iterations)).
		Add(logging.Duration(time.Since(started))).
		Msg("self-play run complete")
	return report, nil
}

// iteration runs one train/train/evaluate/checkpoint cycle.
func (o *Orchestrator) iteration(ctx context.Context, interp *statemachine.Interpreter, runID string, iter int, spec runSpec) (training.AttackerReport, training.DefenderReport, error) {
	fail := func(phase training.Phase, err error) (training.AttackerReport, training.DefenderReport, error) {
		return training.AttackerReport{}, training.DefenderReport{}, &PhaseError{Phase: phase, Iteration: iter, Err: err}
	}

	// Train attacker.
	if err := interp.Advance(training.PhaseTrainAttacker); err != nil {
		return fail(training.PhaseTrainAttacker, err)
	}
	if err := o.attacker.Train(ctx, spec.attackerTimesteps); err != nil {
		return fail(training.PhaseTrainAttacker, err)
	}

	// Train defender.
	if err := interp.Advance(training.PhaseTrainDefender); err != nil {
		return fail(training.PhaseTrainDefender, err)
	}
	if err := o.defender.Train(ctx, spec.defenderTimesteps); err != nil {
		return fail(training.PhaseTrainDefender, err)
	}

	// Evaluate both sides against fixed scenarios.
	if err := interp.Advance(training.PhaseEvaluate); err != nil {
		return fail(training.PhaseEvaluate, err)
	}
	attackerReport, err := o.attacker.EvaluateAttacker(ctx, o.cfg.EvalEpisodes, o.cfg.EvalBaseSeed)
	if err != nil {
		return fail(training.PhaseEvaluate, err)
	}
	defenderReport, err := o.defender.EvaluateDefender(ctx, o.cfg.EvalEpisodes, o.cfg.EvalBaseSeed)
	if err != nil {
		return fail(training.PhaseEvaluate, err)
	}

	it := training.Iteration{
		Index:              iter,
		AttackerMeanReward: attackerReport.MeanReward,
		DefenderMeanReward: defenderReport.MeanReward,
		AttackSuccessRate:  attackerReport.SuccessRate,
		DetectionRate:      attackerReport.DetectionRate,
		Timestamp:          time.Now(),
	}
	o.history.Append(it)
	if o.cfg.Ledger != nil {
		if err := o.cfg.Ledger.Save(ctx, runID, it); err != nil {
			return fail(training.PhaseEvaluate, err)
		}
	}

	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.RunID(runID)).
		Add(logging.Iteration(iter)).
		Add(logging.Reward(attackerReport.MeanReward)).
		Msg("iteration evaluated")

	// Checkpoint on cadence.
	if err := interp.Advance(training.PhaseCheckpoint); err != nil {
		return fail(training.PhaseCheckpoint, err)
	}
	if (iter+1)%spec.checkpointEvery == 0 {
		if err := o.saveCheckpoints(iter); err != nil {
			return fail(training.PhaseCheckpoint, err)
		}
	}
	if (iter+1)%spec.replayEvery == 0 {
		if err := o.recordReplay(ctx, iter); err != nil {
			return fail(training.PhaseCheckpoint, err)
		}
	}

	return attackerReport, defenderReport, nil
}

// saveCheckpoints writes both role checkpoints for an iteration.
func (o *Orchestrator) saveCheckpoints(iter int) error {
	if err := o.attacker.Save(o.cfg.Lineage.IterationPath(sim.ModeAttacker, iter)); err != nil {
		return err
	}
	if err := o.defender.Save(o.cfg.Lineage.IterationPath(sim.ModeDefender, iter)); err != nil {
		return err
	}
	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.Iteration(iter)).
		Add(logging.CheckpointPath(o.cfg.Lineage.CheckpointDir())).
		Msg("checkpoints written")
	return nil
}

// recordReplay plays one deterministic attacker episode and stores it
// for inspection.
func (o *Orchestrator) recordReplay(ctx context.Context, iter int) error {
	env, ok := o.attacker.env.(*sim.Simulator)
	if !ok {
		return nil
	}

	seed := o.cfg.EvalBaseSeed + int64(iter)
	replay := training.Replay{Mode: sim.ModeAttacker, Seed: seed, RecordedAt: time.Now()}

	obs, _ := env.Reset(seed)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		action := o.attacker.Optimizer().Predict(obs, true)
		res, err := env.Step(action)
		if err != nil {
			return err
		}
		replay.Record(action, res)
		obs = res.Observation
		if res.Done() {
			break
		}
	}

	return o.cfg.Store.SaveReplay(fmt.Sprintf("iter_%d", iter), replay)
}

// finalize writes the terminal checkpoint pair and the history, then
// moves the machine to its final phase.
func (o *Orchestrator) finalize(interp *statemachine.Interpreter, runID string) error {
	last := o.history.Len() - 1
	if last >= 0 {
		if err := o.saveCheckpoints(last); err != nil {
			return &PhaseError{Phase: training.PhaseFinalize, Iteration: last, Err: err}
		}
	}
	if err := o.cfg.Store.SaveHistory(o.history); err != nil {
		return &PhaseError{Phase: training.PhaseFinalize, Iteration: last, Err: err}
	}

	if interp.CanAdvance(training.PhaseFinalize) {
		if err := interp.Advance(training.PhaseFinalize); err != nil {
			return &PhaseError{Phase: training.PhaseFinalize, Iteration: last, Err: err}
		}
	}
	interp.Stop()

	logging.Info().
		Add(logging.Component("orchestrator")).
		Add(logging.RunID(runID)).
		Add(logging.TrainPhase(training.PhaseFinalize)).
		Msg("run finalized")
	return nil
}
