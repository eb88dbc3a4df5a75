package sim

// Tunables are the probabilistic design parameters of the simulated
// engagement. Defaults reproduce the reference scenario; scenarios
// may override individual fields through WithTunables.
type Tunables struct {
	// BruteForceSuccess is the per-attempt login success probability.
	BruteForceSuccess float64

	// DownloadSuccess is the malware staging success probability.
	DownloadSuccess float64

	// EscalationSuccess is the privilege escalation success probability.
	EscalationSuccess float64

	// BackdoorSuccess is the backdoor persistence success probability.
	BackdoorSuccess float64

	// ModifySuccess is the file tampering success probability.
	ModifySuccess float64

	// AttackPresence is the per-step probability that an attack is
	// ongoing from the defender's point of view.
	AttackPresence float64

	// TempBlockSuccess, PermBlockSuccess, IsolateSuccess are the
	// per-intervention success probabilities during an active attack.
	TempBlockSuccess float64
	PermBlockSuccess float64
	IsolateSuccess   float64

	// DecoySuccess and DeceptionSuccess gate the deception plays.
	DecoySuccess     float64
	DeceptionSuccess float64
}

// DefaultTunables returns the reference scenario parameters.
func DefaultTunables() Tunables {
	return Tunables{
		BruteForceSuccess: 0.3,
		DownloadSuccess:   0.5,
		EscalationSuccess: 0.4,
		BackdoorSuccess:   0.6,
		ModifySuccess:     0.7,
		AttackPresence:    0.4,
		TempBlockSuccess:  0.7,
		PermBlockSuccess:  0.8,
		IsolateSuccess:    0.9,
		DecoySuccess:      0.8,
		DeceptionSuccess:  0.7,
	}
}
