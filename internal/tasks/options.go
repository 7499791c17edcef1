// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often Start re-checks a worker that has
	// not declared its goal yet.
	DefaultPollInterval = time.Second

	// DefaultFallbackETA is the time-to-go reported while nothing is done.
	// It is a placeholder policy, not an estimate.
	DefaultFallbackETA = 60 * time.Second
)

// Option configures a Definition (and every Task applied from it).
type Option func(*options)

type options struct {
	logger       *zap.Logger
	pollInterval time.Duration
	fallbackETA  time.Duration
	clock        func() time.Time
}

func defaultOptions() options {
	return options{
		logger:       zap.NewNop(),
		pollInterval: DefaultPollInterval,
		fallbackETA:  DefaultFallbackETA,
		clock:        time.Now,
	}
}

// WithLogger sets the logger used for run lifecycle events.
// A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPollInterval sets the bounded wait used by Start while the worker has
// not declared its goal. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithFallbackETA sets the time-to-go Sample reports at 0%.
// Negative values are ignored.
func WithFallbackETA(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.fallbackETA = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}
