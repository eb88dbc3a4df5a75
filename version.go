// Package adversarygo provides the version information for adversary-go.
package adversarygo

// Version is the current version of adversary-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
