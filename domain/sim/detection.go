package sim

// Detection thresholds for the attacker mode.
const (
	// detectionTerminate forces episode termination once exceeded.
	detectionTerminate = 0.8

	// detectionWarn starts the proportional penalty band.
	detectionWarn = 0.5

	// detectionPenalty is subtracted from the reward on forced
	// termination.
	detectionPenalty = 50.0
)

// detectionScore is the accumulated suspicion metric, a weighted sum
// of the observable attack footprint plus per-action increments.
// Every term is monotone within an episode, so the score never
// decreases until reset.
func (s *Simulator) detectionScore() float64 {
	score := 0.0
	score += minFloat(float64(s.attack.CommandsExecuted)/50.0, 0.3)
	score += minFloat(float64(s.attack.FailedAttempts)/20.0, 0.3)
	score += minFloat(float64(s.attack.FilesAccessed)/30.0, 0.2)
	score += s.attack.actionContrib
	return minFloat(score, 1.0)
}

// applyDetection folds the recomputed detection score into an
// attacker outcome: above the termination threshold the episode ends
// with a severe penalty and the connection is forcibly closed; in the
// warning band a proportional penalty applies without termination.
func (s *Simulator) applyDetection(out *outcome) {
	score := s.detectionScore()
	out.info["detection_score"] = score

	switch {
	case score > detectionTerminate:
		out.reward -= detectionPenalty
		out.terminated = true
		out.info["detected"] = true
		s.attack.ConnectionActive = false
	case score > detectionWarn:
		out.reward -= score * 10.0
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
