package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// Interpreter wraps the statekit interpreter with run-specific
// functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the run state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start initializes the interpreter and enters the idle phase.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Phase = training.Phase(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current phase.
func (i *Interpreter) Phase() training.Phase {
	return training.Phase(i.interp.State().Value)
}

// Iteration returns the iteration the machine is working on.
func (i *Interpreter) Iteration() int {
	return i.ctx.Iteration
}

// legalTransitions mirrors the statechart edges so invalid events are
// rejected before they reach the interpreter.
var legalTransitions = map[training.Phase][]training.Phase{
	training.PhaseIdle:          {training.PhaseTrainAttacker, training.PhaseFinalize},
	training.PhaseTrainAttacker: {training.PhaseTrainDefender},
	training.PhaseTrainDefender: {training.PhaseEvaluate},
	training.PhaseEvaluate:      {training.PhaseCheckpoint},
	training.PhaseCheckpoint:    {training.PhaseTrainAttacker, training.PhaseFinalize},
}

// CanAdvance checks whether the statechart defines an edge from the
// current phase to the target. Guards still apply when sending.
func (i *Interpreter) CanAdvance(to training.Phase) bool {
	for _, next := range legalTransitions[i.Phase()] {
		if next == to {
			return true
		}
	}
	return false
}

// Advance attempts to move the machine into the target phase. The
// transition must exist in the statechart and its guards must pass;
// otherwise the machine is left unchanged and an error is returned.
func (i *Interpreter) Advance(to training.Phase) error {
	before := i.interp.State().Value
	if !i.CanAdvance(to) {
		return fmt.Errorf("phase transition %s to %s not allowed", before, to)
	}
	i.interp.Send(statekit.Event{Type: EventForPhase(to)})
	after := i.interp.State().Value
	if after == before && statekit.StateID(to) != before {
		return fmt.Errorf("phase transition %s to %s rejected", before, to)
	}
	return nil
}

// Done returns true once the machine reached its final phase.
func (i *Interpreter) Done() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// ResumeFrom restores the interpreter to a specific phase and
// iteration. Used when continuing an interrupted run.
func (i *Interpreter) ResumeFrom(phase training.Phase, iteration int) error {
	i.ctx.Phase = phase
	i.ctx.Iteration = iteration
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "training-run",
		CurrentState: statekit.StateID(phase),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore phase: %w", err)
	}
	return nil
}
