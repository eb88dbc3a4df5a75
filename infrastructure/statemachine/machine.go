// Package statemachine provides the statekit statechart that drives a
// self-play training run through its phases.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// Context carries run state through the phase machine.
type Context struct {
	RunID           string
	Phase           training.Phase
	Iteration       int
	TotalIterations int
}

// NewContext creates a machine context for a run of the given length.
func NewContext(runID string, totalIterations int) *Context {
	return &Context{
		RunID:           runID,
		Phase:           training.PhaseIdle,
		TotalIterations: totalIterations,
	}
}

// Phase IDs as StateID type for statekit.
const (
	phaseIdle          statekit.StateID = statekit.StateID(training.PhaseIdle)
	phaseTrainAttacker statekit.StateID = statekit.StateID(training.PhaseTrainAttacker)
	phaseTrainDefender statekit.StateID = statekit.StateID(training.PhaseTrainDefender)
	phaseEvaluate      statekit.StateID = statekit.StateID(training.PhaseEvaluate)
	phaseCheckpoint    statekit.StateID = statekit.StateID(training.PhaseCheckpoint)
	phaseFinalize      statekit.StateID = statekit.StateID(training.PhaseFinalize)
)

// NewRunMachine creates the canonical training-run statechart. Each
// iteration flows train_attacker, train_defender, evaluate, checkpoint;
// the checkpoint phase either loops into the next iteration or moves to
// finalize once the run is out of iterations.
func NewRunMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("training-run").
		WithInitial(phaseIdle).
		WithContext(&Context{}).
		WithAction("recordPhase", recordPhase).
		WithAction("advanceIteration", advanceIteration).
		WithGuard("iterationsRemaining", guardIterationsRemaining).
		State(phaseIdle).
			On("TRAIN_ATTACKER").Target(phaseTrainAttacker).Guard("iterationsRemaining").Do("recordPhase").
			On("FINALIZE").Target(phaseFinalize).Do("recordPhase").
			Done().
		State(phaseTrainAttacker).
			On("TRAIN_DEFENDER").Target(phaseTrainDefender).Do("recordPhase").
			Done().
		State(phaseTrainDefender).
			On("EVALUATE").Target(phaseEvaluate).Do("recordPhase").
			Done().
		State(phaseEvaluate).
			On("CHECKPOINT").Target(phaseCheckpoint).Do("recordPhase").
			Done().
		State(phaseCheckpoint).
			On("TRAIN_ATTACKER").Target(phaseTrainAttacker).Guard("iterationsRemaining").Do("advanceIteration").
			On("FINALIZE").Target(phaseFinalize).Do("recordPhase").
			Done().
		State(phaseFinalize).
			Final().
			Done().
		Build()
}

// EventForPhase returns the event type that targets a phase.
func EventForPhase(to training.Phase) statekit.EventType {
	switch to {
	case training.PhaseTrainAttacker:
		return "TRAIN_ATTACKER"
	case training.PhaseTrainDefender:
		return "TRAIN_DEFENDER"
	case training.PhaseEvaluate:
		return "EVALUATE"
	case training.PhaseCheckpoint:
		return "CHECKPOINT"
	case training.PhaseFinalize:
		return "FINALIZE"
	default:
		return statekit.EventType(to)
	}
}
