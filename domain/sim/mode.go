// Package sim provides the episodic attack/defense Markov process.
package sim

// Mode selects which side of the engagement a Simulator models.
// Modes are identified by stable strings, not behavioral definitions.
type Mode string

const (
	// ModeAttacker simulates an intruder working against the honeypot.
	ModeAttacker Mode = "attacker"

	// ModeDefender simulates the blue-team response loop.
	ModeDefender Mode = "defender"
)

// IsValid returns true if the mode is a recognized canonical mode.
func (m Mode) IsValid() bool {
	return m == ModeAttacker || m == ModeDefender
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// AllModes returns all canonical modes.
func AllModes() []Mode {
	return []Mode{ModeAttacker, ModeDefender}
}
