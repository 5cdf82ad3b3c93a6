package platform

import "quicktimer/internal/core/clock"

// NewIdleProvider returns the idle checker for the running OS. Unsupported
// systems return a checker that always reports clock.ErrIdleUnsupported.
func NewIdleProvider() clock.IdleChecker {
	return newIdleProvider()
}
