package filesystem

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}
	return s
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	h := &training.History{}
	h.Append(training.Iteration{
		Index:              0,
		AttackerMeanReward: 12.5,
		DefenderMeanReward: 30.1,
		AttackSuccessRate:  0.4,
		DetectionRate:      0.6,
		Timestamp:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	h.Append(training.Iteration{
		Index:              1,
		AttackerMeanReward: 15.0,
		DefenderMeanReward: 28.0,
		AttackSuccessRate:  0.5,
		DetectionRate:      0.55,
		Timestamp:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	if err := s.SaveHistory(h); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	got, err := s.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("LoadHistory() len = %d, want 2", got.Len())
	}
	last, ok := got.Last()
	if !ok {
		t.Fatal("Last() ok = false")
	}
	if last.AttackerMeanReward != 15.0 || last.DetectionRate != 0.55 {
		t.Errorf("last iteration = %+v", last)
	}
	if !last.Timestamp.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v, want RFC3339 round trip", last.Timestamp)
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := training.ProgressReport{
		RunID:      "run-7",
		Iterations: 10,
		Attacker: training.AttackerReport{
			Episodes:    20,
			MeanReward:  44.2,
			SuccessRate: 0.35,
		},
		Defender: training.DefenderReport{
			Episodes:        20,
			MeanReward:      61.0,
			AttacksDetected: 12,
			Precision:       0.8,
		},
		GeneratedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	if err := s.SaveReport(want); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, err := s.LoadReport()
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if got.RunID != want.RunID || got.Iterations != want.Iterations {
		t.Errorf("report = %+v, want %+v", got, want)
	}
	if got.Defender.AttacksDetected != 12 {
		t.Errorf("AttacksDetected = %d, want 12", got.Defender.AttacksDetected)
	}
}

func TestReplayRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if names, err := s.Replays(); err != nil || names != nil {
		t.Fatalf("Replays() = (%v, %v) on empty store", names, err)
	}

	replay := training.Replay{Mode: sim.ModeAttacker, Seed: 42}
	replay.Record(0, sim.StepResult{Reward: 20.0})
	replay.Record(9, sim.StepResult{Reward: -0.5, Truncated: true})

	if err := s.SaveReplay("iter_3_episode_0", replay); err != nil {
		t.Fatalf("SaveReplay() error = %v", err)
	}

	got, err := s.LoadReplay("iter_3_episode_0")
	if err != nil {
		t.Fatalf("LoadReplay() error = %v", err)
	}
	if got.Length() != 2 {
		t.Fatalf("replay length = %d, want 2", got.Length())
	}
	if got.TotalReward != 19.5 {
		t.Errorf("TotalReward = %v, want 19.5", got.TotalReward)
	}
	if got.Steps[0].ActionName != sim.ActionName(sim.ModeAttacker, 0) {
		t.Errorf("ActionName = %q", got.Steps[0].ActionName)
	}

	names, err := s.Replays()
	if err != nil {
		t.Fatalf("Replays() error = %v", err)
	}
	if len(names) != 1 || names[0] != "iter_3_episode_0" {
		t.Errorf("Replays() = %v", names)
	}
}

func TestLoadHistoryMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadHistory(); err == nil {
		t.Fatal("LoadHistory() = nil error with no history file")
	}
}
