package domain

import "fmt"

// Chain identifies one of the two BIP84 derivation branches of an account.
type Chain uint32

const (
	// ExternalChain is the receive branch (m/.../0/i).
	ExternalChain Chain = iota
	// ChangeChain is the internal branch (m/.../1/i).
	ChangeChain
)

// Chains lists the branches scanned for every wallet, in scan order.
var Chains = []Chain{ExternalChain, ChangeChain}

func (c Chain) String() string {
	switch c {
	case ExternalChain:
		return "external"
	case ChangeChain:
		return "change"
	default:
		return fmt.Sprintf("chain(%d)", uint32(c))
	}
}

// ScanMode selects how much work a run is allowed to do.
type ScanMode int

const (
	// ScanModeCacheOnly reports cached balances, no derivation nor lookups.
	ScanModeCacheOnly ScanMode = iota
	// ScanModeIncremental resumes every chain from its persisted state.
	ScanModeIncremental
	// ScanModeForce discards the persisted state and rescans from index 0.
	ScanModeForce
	// ScanModeCold is what an incremental scan becomes when there is no prior
	// state to resume from.
	ScanModeCold
)

func (m ScanMode) String() string {
	switch m {
	case ScanModeCacheOnly:
		return "cache-only"
	case ScanModeIncremental:
		return "incremental"
	case ScanModeForce:
		return "force"
	case ScanModeCold:
		return "cold"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IsScan returns whether the mode performs network lookups.
func (m ScanMode) IsScan() bool {
	return m != ScanModeCacheOnly
}
