package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/adversary-go/domain/training"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// recordPhase updates the context with the phase just entered.
// In statekit, actions receive a pointer to the context. Since our
// context is *Context, actions receive **Context.
func recordPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	c.Phase = phaseFromEventType(event.Type)

	logging.Debug().
		Add(logging.Component("statemachine")).
		Add(logging.RunID(c.RunID)).
		Add(logging.TrainPhase(c.Phase)).
		Add(logging.Iteration(c.Iteration)).
		Msg("phase entered")
}

// advanceIteration moves the context into the next iteration's
// train_attacker phase.
func advanceIteration(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	c.Iteration++
	recordPhase(ctx, event)
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) training.Phase {
	switch eventType {
	case "TRAIN_ATTACKER":
		return training.PhaseTrainAttacker
	case "TRAIN_DEFENDER":
		return training.PhaseTrainDefender
	case "EVALUATE":
		return training.PhaseEvaluate
	case "CHECKPOINT":
		return training.PhaseCheckpoint
	case "FINALIZE":
		return training.PhaseFinalize
	default:
		return training.Phase(eventType)
	}
}
