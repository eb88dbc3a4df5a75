package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// guardIterationsRemaining allows entering train_attacker only while
// the run has an iteration left to work on.
// Note: In statekit, guards receive the context by value. Since our
// context is *Context, the guard receives *Context directly.
func guardIterationsRemaining(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	next := ctx.Iteration
	if ctx.Phase == training.PhaseCheckpoint {
		next++
	}
	return next < ctx.TotalIterations
}
