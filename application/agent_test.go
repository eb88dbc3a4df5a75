package application

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/advisor"
	"github.com/felixgeelhaar/adversary-go/infrastructure/optimizer"
)

func newTestAgent(t *testing.T, mode sim.Mode, consultant *advisor.Consultant) *Agent {
	t.Helper()
	env, err := sim.New(mode, sim.WithMaxSteps(25))
	if err != nil {
		t.Fatalf("sim.New() error = %v", err)
	}
	agent, err := NewAgent(AgentConfig{
		Mode:       mode,
		Optimizer:  optimizer.NewTabular(1),
		Env:        env,
		Consultant: consultant,
	})
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	return agent
}

func TestNewAgentValidation(t *testing.T) {
	env, err := sim.New(sim.ModeAttacker)
	if err != nil {
		t.Fatalf("sim.New() error = %v", err)
	}

	tests := []struct {
		name string
		cfg  AgentConfig
	}{
		{"invalid mode", AgentConfig{Mode: "referee", Optimizer: optimizer.NewTabular(0), Env: env}},
		{"missing optimizer", AgentConfig{Mode: sim.ModeAttacker, Env: env}},
		{"missing environment", AgentConfig{Mode: sim.ModeAttacker, Optimizer: optimizer.NewTabular(0)}},
		{"mode mismatch", AgentConfig{Mode: sim.ModeDefender, Optimizer: optimizer.NewTabular(0), Env: env}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAgent(tt.cfg); err == nil {
				t.Error("NewAgent() = nil error")
			}
		})
	}
}

func TestTrainAndEvaluateAttacker(t *testing.T) {
	agent := newTestAgent(t, sim.ModeAttacker, nil)
	ctx := context.Background()

	if err := agent.Train(ctx, 500); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	report, err := agent.EvaluateAttacker(ctx, 5, 100)
	if err != nil {
		t.Fatalf("EvaluateAttacker() error = %v", err)
	}
	if report.Episodes != 5 {
		t.Errorf("Episodes = %d, want 5", report.Episodes)
	}
	if report.MeanLength <= 0 || report.MeanLength > 25 {
		t.Errorf("MeanLength = %v, want in (0, 25]", report.MeanLength)
	}
	if report.SuccessRate < 0 || report.SuccessRate > 1 {
		t.Errorf("SuccessRate = %v, want in [0, 1]", report.SuccessRate)
	}

	// Deterministic evaluation repeats exactly.
	again, err := agent.EvaluateAttacker(ctx, 5, 100)
	if err != nil {
		t.Fatalf("EvaluateAttacker() repeat error = %v", err)
	}
	if again.MeanReward != report.MeanReward || again.MeanLength != report.MeanLength {
		t.Errorf("repeat evaluation differs: %+v vs %+v", again, report)
	}
}

func TestEvaluateDefender(t *testing.T) {
	agent := newTestAgent(t, sim.ModeDefender, nil)
	ctx := context.Background()

	if err := agent.Train(ctx, 300); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	report, err := agent.EvaluateDefender(ctx, 4, 50)
	if err != nil {
		t.Fatalf("EvaluateDefender() error = %v", err)
	}
	if report.Episodes != 4 {
		t.Errorf("Episodes = %d, want 4", report.Episodes)
	}
	if report.Precision < 0 || report.Precision > 1 {
		t.Errorf("Precision = %v, want in [0, 1]", report.Precision)
	}
}

func TestEvaluateModeMismatch(t *testing.T) {
	attacker := newTestAgent(t, sim.ModeAttacker, nil)
	if _, err := attacker.EvaluateDefender(context.Background(), 1, 0); err == nil {
		t.Error("EvaluateDefender() on attacker agent = nil error")
	}

	defender := newTestAgent(t, sim.ModeDefender, nil)
	if _, err := defender.EvaluateAttacker(context.Background(), 1, 0); err == nil {
		t.Error("EvaluateAttacker() on defender agent = nil error")
	}
}

func TestPredictTakesAdvisorSuggestion(t *testing.T) {
	consultant := advisor.NewConsultant(advisor.NewMockProvider("6"), advisor.ConsultantConfig{
		Probability: 1.0,
		Seed:        2,
		SkipProbe:   true,
	})
	agent := newTestAgent(t, sim.ModeAttacker, consultant)

	env := agent.env.(*sim.Simulator)
	obs, _ := env.Reset(1)
	if got := agent.Predict(context.Background(), obs, false); got != 6 {
		t.Errorf("Predict() = %d, want advisor suggestion 6", got)
	}
}

func TestPredictDeterministicSkipsAdvisor(t *testing.T) {
	provider := advisor.NewMockProvider("6")
	consultant := advisor.NewConsultant(provider, advisor.ConsultantConfig{
		Probability: 1.0,
		Seed:        2,
		SkipProbe:   true,
	})
	agent := newTestAgent(t, sim.ModeAttacker, consultant)

	env := agent.env.(*sim.Simulator)
	obs, _ := env.Reset(1)
	want := agent.Optimizer().Predict(obs, true)
	if got := agent.Predict(context.Background(), obs, true); got != want {
		t.Errorf("Predict() = %d, want policy action %d", got, want)
	}
	if provider.Calls() != 0 {
		t.Errorf("provider calls = %d, want 0 on deterministic predict", provider.Calls())
	}
}

func TestPredictFallsBackWithoutConsultant(t *testing.T) {
	agent := newTestAgent(t, sim.ModeAttacker, nil)
	env := agent.env.(*sim.Simulator)
	obs, _ := env.Reset(1)

	want := agent.Optimizer().Predict(obs, true)
	if got := agent.Predict(context.Background(), obs, true); got != want {
		t.Errorf("Predict() = %d, want policy action %d", got, want)
	}
}

func TestDefenderIgnoresConsultant(t *testing.T) {
	consultant := advisor.NewConsultant(advisor.NewMockProvider("6"), advisor.ConsultantConfig{
		Probability: 1.0,
		Seed:        2,
		SkipProbe:   true,
	})
	env, err := sim.New(sim.ModeDefender)
	if err != nil {
		t.Fatalf("sim.New() error = %v", err)
	}
	agent, err := NewAgent(AgentConfig{
		Mode:       sim.ModeDefender,
		Optimizer:  optimizer.NewTabular(1),
		Env:        env,
		Consultant: consultant,
	})
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}

	obs, _ := env.Reset(1)
	agent.Predict(context.Background(), obs, false)
	if offered, _ := consultant.Stats(); offered != 0 {
		t.Errorf("consultant offered = %d, want 0 (defender never consults)", offered)
	}
}
