// Package training holds the iteration records accumulated by the
// self-play orchestrator.
package training

import "time"

// Iteration is one completed self-play iteration. Records are
// appended to a History and never mutated afterwards.
type Iteration struct {
	Index              int
	AttackerMeanReward float64
	DefenderMeanReward float64
	AttackSuccessRate  float64
	DetectionRate      float64
	Timestamp          time.Time
}

// History is the append-only sequence of completed iterations. It is
// owned exclusively by the orchestrator; agents never touch it.
type History struct {
	iterations []Iteration
}

// Append adds a completed iteration record.
func (h *History) Append(it Iteration) {
	h.iterations = append(h.iterations, it)
}

// Len returns the number of recorded iterations.
func (h *History) Len() int {
	return len(h.iterations)
}

// Iterations returns a copy of the recorded iterations.
func (h *History) Iterations() []Iteration {
	out := make([]Iteration, len(h.iterations))
	copy(out, h.iterations)
	return out
}

// Last returns the most recent iteration and whether one exists.
func (h *History) Last() (Iteration, bool) {
	if len(h.iterations) == 0 {
		return Iteration{}, false
	}
	return h.iterations[len(h.iterations)-1], true
}

// FileFormat is the persisted shape of a history: parallel arrays,
// one entry per completed iteration, timestamps in RFC 3339.
type FileFormat struct {
	Iterations         []int     `json:"iterations"`
	AttackerRewards    []float64 `json:"attacker_rewards"`
	DefenderRewards    []float64 `json:"defender_rewards"`
	AttackSuccessRates []float64 `json:"attack_success_rates"`
	DetectionRates     []float64 `json:"detection_rates"`
	Timestamps         []string  `json:"timestamps"`
}

// ToFileFormat converts the history to its persisted shape.
func (h *History) ToFileFormat() FileFormat {
	f := FileFormat{
		Iterations:         make([]int, 0, len(h.iterations)),
		AttackerRewards:    make([]float64, 0, len(h.iterations)),
		DefenderRewards:    make([]float64, 0, len(h.iterations)),
		AttackSuccessRates: make([]float64, 0, len(h.iterations)),
		DetectionRates:     make([]float64, 0, len(h.iterations)),
		Timestamps:         make([]string, 0, len(h.iterations)),
	}
	for _, it := range h.iterations {
		f.Iterations = append(f.Iterations, it.Index)
		f.AttackerRewards = append(f.AttackerRewards, it.AttackerMeanReward)
		f.DefenderRewards = append(f.DefenderRewards, it.DefenderMeanReward)
		f.AttackSuccessRates = append(f.AttackSuccessRates, it.AttackSuccessRate)
		f.DetectionRates = append(f.DetectionRates, it.DetectionRate)
		f.Timestamps = append(f.Timestamps, it.Timestamp.Format(time.RFC3339))
	}
	return f
}

// FromFileFormat rebuilds a history from its persisted shape.
// Malformed timestamps become zero times rather than errors; the
// numeric series are the authoritative content.
func FromFileFormat(f FileFormat) *History {
	h := &History{}
	for i := range f.Iterations {
		it := Iteration{Index: f.Iterations[i]}
		if i < len(f.AttackerRewards) {
			it.AttackerMeanReward = f.AttackerRewards[i]
		}
		if i < len(f.DefenderRewards) {
			it.DefenderMeanReward = f.DefenderRewards[i]
		}
		if i < len(f.AttackSuccessRates) {
			it.AttackSuccessRate = f.AttackSuccessRates[i]
		}
		if i < len(f.DetectionRates) {
			it.DetectionRate = f.DetectionRates[i]
		}
		if i < len(f.Timestamps) {
			if ts, err := time.Parse(time.RFC3339, f.Timestamps[i]); err == nil {
				it.Timestamp = ts
			}
		}
		h.Append(it)
	}
	return h
}
