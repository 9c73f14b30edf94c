// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package generator produces the synthetic laser scans and the matching
// base→laser transform at a fixed rate.
package generator

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/scan_producer/internal/params"
	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
)

// DefaultInterval is the tick period (10 Hz).
const DefaultInterval = 100 * time.Millisecond

// Publisher receives the output of every tick.
type Publisher interface {
	PublishScan(s *scan.Scan) error
	PublishTransform(t tf.Stamped) error
}

// Options tunes a Generator. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Clock    clock.Clock
	LogTicks bool
}

// Generator owns the oscillation state and drives the publish loop.
type Generator struct {
	params   params.Provider
	pub      Publisher
	clock    clock.Clock
	interval time.Duration
	logTicks bool

	osc   *Oscillator
	ticks atomic.Uint64
}

// New returns a Generator reading parameters from p and publishing to pub.
func New(p params.Provider, pub Publisher, opts Options) *Generator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Generator{
		params:   p,
		pub:      pub,
		clock:    opts.Clock,
		interval: opts.Interval,
		logTicks: opts.LogTicks,
		osc:      NewOscillator(),
	}
}

// Tick advances the oscillation by one step and computes the scan and the
// transform for it. Both carry the same stamp.
func (g *Generator) Tick() (*scan.Scan, tf.Stamped) {
	z := g.osc.Step()
	now := g.clock.Now()

	p := g.params.Snapshot()
	s := scan.New(now)
	FillRanges(s.Ranges, p, z)

	return s, tf.NewLaserTransform(now, z)
}

// Ticks returns the number of completed ticks.
func (g *Generator) Ticks() uint64 {
	return g.ticks.Load()
}

// Oscillator exposes the oscillation state; it must not be modified while
// Run is active.
func (g *Generator) Oscillator() *Oscillator {
	return g.osc
}

// step runs one full tick. Publish errors are logged and do not stop the loop.
func (g *Generator) step() {
	s, t := g.Tick()

	if err := g.pub.PublishScan(s); err != nil {
		log.Printf("generator: publish scan error: %v", err)
	}
	if err := g.pub.PublishTransform(t); err != nil {
		log.Printf("generator: publish transform error: %v", err)
	}
	g.ticks.Add(1)

	if g.logTicks {
		log.Printf("generator: publishing scan at z=%.3f", t.Transform.Translation.Z)
	}
}

// Run publishes one tick immediately and then one per interval until ctx is
// cancelled. Cancellation is only observed between ticks, so a tick that has
// started is always published. Run returns nil on cancellation.
func (g *Generator) Run(ctx context.Context) error {
	ticker := g.clock.Ticker(g.interval)
	defer ticker.Stop()

	log.Printf("generator: running at %s per tick", g.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("generator: stopping after %d ticks", g.Ticks())
			return nil
		default:
		}

		g.step()

		select {
		case <-ctx.Done():
			log.Printf("generator: stopping after %d ticks", g.Ticks())
			return nil
		case <-ticker.C:
		}
	}
}
