package sim

// ObservationSize is the fixed dimensionality of both modes'
// observation vectors.
const ObservationSize = 8

// Observation is the fixed-length numeric projection of the episode
// state handed to the policy each step. Components are clamped to
// their declared ranges; the projection is lossy by design.
type Observation [ObservationSize]float64

// Vector returns the observation as a plain slice.
func (o Observation) Vector() []float64 {
	v := make([]float64, ObservationSize)
	copy(v, o[:])
	return v
}

func clampInt(v, max int) float64 {
	if v > max {
		return float64(max)
	}
	return float64(v)
}

func clampFloat(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// attackerObservation projects the attack state:
// [connection, commands, files, privilege, detection, step, failed, exploits].
func (s *Simulator) attackerObservation() Observation {
	return Observation{
		boolToFloat(s.attack.ConnectionActive),
		clampInt(s.attack.CommandsExecuted, 100),
		clampInt(s.attack.FilesAccessed, 100),
		float64(s.attack.PrivilegeLevel),
		clampFloat(s.detectionScore(), 1.0),
		float64(s.step),
		clampInt(s.attack.FailedAttempts, 50),
		clampInt(s.attack.SuccessfulExploits, 20),
	}
}

// defenderObservation projects the defense state plus simulated
// telemetry noise drawn from the episode's random source:
// [connections, failed logins, suspicious commands, unique IPs,
// avg session duration, port scan flag, malware downloads,
// privilege escalation attempts].
func (s *Simulator) defenderObservation() Observation {
	return Observation{
		clampInt(s.defense.ActiveConnections, 100),
		clampInt(s.defense.FailedLogins, 1000),
		clampInt(s.defense.SuspiciousCommands, 1000),
		float64(1 + s.rng.Intn(10)),
		10 + s.rng.Float64()*290,
		boolToFloat(s.rng.Float64() < 0.2),
		float64(s.rng.Intn(6)),
		float64(s.rng.Intn(4)),
	}
}
