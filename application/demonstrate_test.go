package application

import (
	"context"
	"strings"
	"testing"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
)

func TestDemonstrate(t *testing.T) {
	agent := newTestAgent(t, sim.ModeAttacker, nil)

	var out strings.Builder
	replay, err := Demonstrate(context.Background(), agent, 42, &out)
	if err != nil {
		t.Fatalf("Demonstrate() error = %v", err)
	}
	if replay.Length() == 0 {
		t.Fatal("Demonstrate() recorded no steps")
	}
	if replay.Length() > 25 {
		t.Errorf("replay length = %d, want at most max steps", replay.Length())
	}
	if replay.Seed != 42 || replay.Mode != sim.ModeAttacker {
		t.Errorf("replay metadata = %+v", replay)
	}

	trace := out.String()
	if !strings.Contains(trace, "episode start") || !strings.Contains(trace, "episode end") {
		t.Errorf("trace missing frame markers:\n%s", trace)
	}
	if !strings.Contains(trace, "total_reward=") {
		t.Errorf("trace missing total reward:\n%s", trace)
	}
}

func TestDemonstrateDeterministic(t *testing.T) {
	agent := newTestAgent(t, sim.ModeAttacker, nil)

	var a, b strings.Builder
	first, err := Demonstrate(context.Background(), agent, 7, &a)
	if err != nil {
		t.Fatalf("Demonstrate() error = %v", err)
	}
	second, err := Demonstrate(context.Background(), agent, 7, &b)
	if err != nil {
		t.Fatalf("Demonstrate() repeat error = %v", err)
	}
	if first.TotalReward != second.TotalReward || first.Length() != second.Length() {
		t.Errorf("repeated demonstration differs: %v/%d vs %v/%d",
			first.TotalReward, first.Length(), second.TotalReward, second.Length())
	}
}
