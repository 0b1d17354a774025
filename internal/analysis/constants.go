// Package analysis classifies ROM bytes by the ARM instruction word they
// belong to. It decides which bytes are safe to corrupt.
package analysis

// Constants for analysis operations
const (
	// MaxTitleLength bounds header strings shown in reports
	MaxTitleLength = 12

	// DefaultWindow is the number of words shown around an offset
	DefaultWindow = 16
)
