package training

import (
	"time"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
)

// ReplayStep is one recorded environment step.
type ReplayStep struct {
	Action     int     `json:"action"`
	ActionName string  `json:"action_name"`
	Reward     float64 `json:"reward"`
	Terminated bool    `json:"terminated"`
	Truncated  bool    `json:"truncated"`
}

// Replay records a full episode so it can be inspected after training.
type Replay struct {
	Mode        sim.Mode     `json:"mode"`
	Seed        int64        `json:"seed"`
	Steps       []ReplayStep `json:"steps"`
	TotalReward float64      `json:"total_reward"`
	RecordedAt  time.Time    `json:"recorded_at"`
}

// Record appends a step and folds its reward into the total.
func (r *Replay) Record(action int, res sim.StepResult) {
	r.Steps = append(r.Steps, ReplayStep{
		Action:     action,
		ActionName: sim.ActionName(r.Mode, action),
		Reward:     res.Reward,
		Terminated: res.Terminated,
		Truncated:  res.Truncated,
	})
	r.TotalReward += res.Reward
}

// Length returns the number of recorded steps.
func (r *Replay) Length() int {
	return len(r.Steps)
}
