package main

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// keeperLimiter throttles the recalibrate_rate/bump_instance admin surface
// the way the teacher's gateway throttles keeper calls, guarding against a
// misbehaving keeper hammering storage TTL bumps or rate recalibration.
type keeperLimiter struct {
	limiter *rate.Limiter
}

// newKeeperLimiter allows ratePerSecond calls per second, bursting up to
// burst at once.
func newKeeperLimiter(ratePerSecond float64, burst int) *keeperLimiter {
	return &keeperLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until the next call is permitted or ctx is cancelled.
func (k *keeperLimiter) Wait(ctx context.Context) error {
	return k.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now without blocking.
func (k *keeperLimiter) Allow() bool {
	return k.limiter.Allow()
}

const (
	defaultKeeperRatePerSecond = 1.0
	defaultKeeperBurst         = 5
	defaultKeeperWaitTimeout   = 10 * time.Second
)
