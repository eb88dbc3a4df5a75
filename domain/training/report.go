package training

import "time"

// AttackerReport aggregates deterministic evaluation rollouts in
// attacker mode.
type AttackerReport struct {
	Episodes      int     `json:"episodes"`
	MeanReward    float64 `json:"mean_reward"`
	StdReward     float64 `json:"std_reward"`
	MeanLength    float64 `json:"mean_length"`
	SuccessRate   float64 `json:"success_rate"`
	DetectionRate float64 `json:"detection_rate"`
}

// DefenderReport aggregates deterministic evaluation rollouts in
// defender mode.
type DefenderReport struct {
	Episodes         int     `json:"episodes"`
	MeanReward       float64 `json:"mean_reward"`
	StdReward        float64 `json:"std_reward"`
	MeanLength       float64 `json:"mean_length"`
	AttacksDetected  int     `json:"attacks_detected"`
	FalsePositives   int     `json:"false_positives"`
	Precision        float64 `json:"precision"`
	AttacksMitigated int     `json:"attacks_mitigated"`
}

// ProgressReport is the end-of-run summary written next to the
// training history.
type ProgressReport struct {
	RunID       string         `json:"run_id"`
	Iterations  int            `json:"iterations"`
	Attacker    AttackerReport `json:"attacker"`
	Defender    DefenderReport `json:"defender"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Phase identifies a stage of the self-play training run.
type Phase string

// Canonical phases of a training run state machine.
const (
	PhaseIdle          Phase = "idle"
	PhaseTrainAttacker Phase = "train_attacker"
	PhaseTrainDefender Phase = "train_defender"
	PhaseEvaluate      Phase = "evaluate"
	PhaseCheckpoint    Phase = "checkpoint"
	PhaseFinalize      Phase = "finalize"
)

// IsTerminal returns true for the finalize phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseFinalize
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AllPhases returns all canonical phases.
func AllPhases() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseTrainAttacker,
		PhaseTrainDefender,
		PhaseEvaluate,
		PhaseCheckpoint,
		PhaseFinalize,
	}
}
