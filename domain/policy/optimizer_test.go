package policy

import (
	"testing"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
)

func TestTransitionDone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		terminated bool
		truncated  bool
		want       bool
	}{
		{"ongoing", false, false, false},
		{"terminated", true, false, true},
		{"truncated", false, true, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Transition{Terminated: tt.terminated, Truncated: tt.truncated}
			if got := tr.Done(); got != tt.want {
				t.Errorf("Done() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHooksNilFieldsAreSkipped(t *testing.T) {
	t.Parallel()

	var h Hooks
	h.Step(Transition{})
	h.EpisodeEnd(EpisodeSummary{})
	if action, ok := h.Propose(sim.Observation{}); ok || action != 0 {
		t.Errorf("Propose() with nil hook = %d, %v, want 0, false", action, ok)
	}
}

func TestHooksDispatch(t *testing.T) {
	t.Parallel()

	var steps, episodes int
	h := Hooks{
		OnStep:       func(Transition) { steps++ },
		OnEpisodeEnd: func(EpisodeSummary) { episodes++ },
		ProposeAction: func(sim.Observation) (int, bool) {
			return sim.AttackRecon, true
		},
	}

	h.Step(Transition{})
	h.Step(Transition{})
	h.EpisodeEnd(EpisodeSummary{})

	if steps != 2 || episodes != 1 {
		t.Errorf("dispatch counts = %d steps, %d episodes, want 2, 1", steps, episodes)
	}
	if action, ok := h.Propose(sim.Observation{}); !ok || action != sim.AttackRecon {
		t.Errorf("Propose() = %d, %v, want %d, true", action, ok, sim.AttackRecon)
	}
}
