package scanner

import "fmt"

const (
	// DefaultGapLimit is the number of consecutive empty addresses after
	// which a chain is considered fully scanned.
	DefaultGapLimit = 50
	// DefaultMaxIndex bounds the number of indices checked per chain.
	DefaultMaxIndex = 500
	// DefaultBacktrack is how many indices below the last scanned one an
	// incremental scan starts from.
	DefaultBacktrack = 5
)

// Config parametrizes the gap-limit scan.
type Config struct {
	GapLimit  int
	MaxIndex  int
	Backtrack int
	// FailedLookupsAsEmpty makes a lookup that failed after retries count
	// toward the empty streak, like a confirmed empty address. By default it
	// leaves the streak untouched.
	FailedLookupsAsEmpty bool
}

// DefaultConfig returns the default scan parameters.
func DefaultConfig() Config {
	return Config{
		GapLimit:  DefaultGapLimit,
		MaxIndex:  DefaultMaxIndex,
		Backtrack: DefaultBacktrack,
	}
}

// Validate returns an error if c cannot drive a scan.
func (c Config) Validate() error {
	if c.GapLimit <= 0 {
		return fmt.Errorf("gap limit must be positive, got %d", c.GapLimit)
	}
	if c.MaxIndex <= 0 {
		return fmt.Errorf("max index must be positive, got %d", c.MaxIndex)
	}
	if c.Backtrack < 0 {
		return fmt.Errorf("backtrack must not be negative, got %d", c.Backtrack)
	}
	return nil
}
