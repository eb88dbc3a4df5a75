package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for training-run logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// SimMode adds a simulator mode field.
func SimMode(m sim.Mode) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("mode", string(m))
	}
}

// TrainPhase adds a training phase field.
func TrainPhase(p training.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", string(p))
	}
}

// Iteration adds an iteration index field.
func Iteration(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iteration", n)
	}
}

// Round adds a round index field for alternating training.
func Round(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("round", n)
	}
}

// Step adds a step index field.
func Step(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", n)
	}
}

// Action adds an action field with its name.
func Action(mode sim.Mode, action int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("action", action).Str("action_name", sim.ActionName(mode, action))
	}
}

// Reward adds a reward field.
func Reward(r float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("reward", r)
	}
}

// Timesteps adds a timestep budget field.
func Timesteps(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("timesteps", n)
	}
}

// Episodes adds an episode count field.
func Episodes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("episodes", n)
	}
}

// CheckpointPath adds a checkpoint path field.
func CheckpointPath(path string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("checkpoint", path)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Provider adds an advisory provider field.
func Provider(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", name)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}
