//go:build !linux && !windows

package platform

import (
	"time"

	"quicktimer/internal/core/clock"
)

type idleProvider struct{}

func newIdleProvider() clock.IdleChecker {
	return &idleProvider{}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	return 0, clock.ErrIdleUnsupported
}
