// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package generator

// Oscillation bounds and per-tick step of the sensor z-offset.
const (
	ZMin  = -2.0
	ZMax  = 0.0
	ZStep = 0.025
)

// Oscillator moves z back and forth across [ZMin, ZMax].
// z may overshoot a bound by at most one step before the direction flips.
type Oscillator struct {
	Z         float64
	Direction int // +1 moves z down, -1 moves z up
}

// NewOscillator starts at z=0 moving down.
func NewOscillator() *Oscillator {
	return &Oscillator{Z: 0, Direction: 1}
}

// Step advances z by one tick and points the direction back inward once z
// leaves the closed interval. It returns the new z.
func (o *Oscillator) Step() float64 {
	o.Z -= ZStep * float64(o.Direction)
	switch {
	case o.Z < ZMin:
		o.Direction = -1
	case o.Z > ZMax:
		o.Direction = 1
	}
	return o.Z
}
