// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package generator

import (
	"math"

	"github.com/relabs-tech/scan_producer/internal/params"
	"github.com/relabs-tech/scan_producer/internal/scan"
)

// AngleOffset rotates the model so the line/circle sits in front of the
// sensor; it is not part of the published angles.
const AngleOffset = 1.571

// degenerateEps is the smallest |denominator| the line model accepts.
const degenerateEps = 1e-9

// LineRange is the distance along a ray at angle to the line
// y = slope*x + intercept, i.e. r = b / (m*cos(a) - sin(a)).
// A ray parallel to the line (or a non-finite quotient) never hits it and
// reads as scan.RangeMax.
func LineRange(slope, intercept, angle float64) float64 {
	den := slope*math.Cos(angle) - math.Sin(angle)
	if math.Abs(den) < degenerateEps {
		return scan.RangeMax
	}
	r := intercept / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return scan.RangeMax
	}
	return r
}

// ModelRange returns the unscaled range of the configured model at angle.
func ModelRange(p params.Params, angle float64) float64 {
	switch p.Mode {
	case params.ModeLine:
		return LineRange(p.Slope, p.Intercept, angle)
	default:
		return p.Radius
	}
}

// FillRanges computes every sample of ranges for height z: the model value
// scaled by -z/2 and clamped at zero. A sample that overflows reads as
// scan.RangeMax, so every published range is finite.
func FillRanges(ranges []float64, p params.Params, z float64) {
	scale := -z * 0.5
	for i := range ranges {
		angle := scan.AngleMin + float64(i)*scan.AngleIncrement - AngleOffset
		r := ModelRange(p, angle) * scale
		switch {
		case r <= 0 || math.IsNaN(r):
			r = 0
		case math.IsInf(r, 1):
			r = scan.RangeMax
		}
		ranges[i] = r
	}
}
