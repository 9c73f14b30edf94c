package generator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/scan_producer/internal/params"
	"github.com/relabs-tech/scan_producer/internal/scan"
)

func TestFillRanges_RadiusAtZeroClampsToZero(t *testing.T) {
	ranges := make([]float64, scan.NumRanges)
	FillRanges(ranges, params.Defaults(), 0)
	for i, r := range ranges {
		assert.Equal(t, 0.0, r, "sample %d", i)
		assert.False(t, math.Signbit(r), "sample %d is negative zero", i)
	}
}

func TestFillRanges_RadiusScaled(t *testing.T) {
	p := params.Defaults()
	p.Radius = 4.0
	ranges := make([]float64, scan.NumRanges)
	FillRanges(ranges, p, -1.0)
	for i, r := range ranges {
		assert.Equal(t, 2.0, r, "sample %d", i)
	}
}

func TestFillRanges_NegativeModelClamped(t *testing.T) {
	p := params.Defaults()
	p.Radius = -3
	ranges := make([]float64, scan.NumRanges)
	FillRanges(ranges, p, -2.0)
	for _, r := range ranges {
		assert.Equal(t, 0.0, r)
	}
}

func TestFillRanges_OverflowReadsRangeMax(t *testing.T) {
	p := params.Params{Mode: params.ModeRadius, Radius: math.MaxFloat64}
	ranges := make([]float64, scan.NumRanges)
	// Scale is slightly above 1 on the overshoot tick, so the product overflows.
	FillRanges(ranges, p, ZMin-ZStep)
	for i, r := range ranges {
		assert.Equal(t, scan.RangeMax, r, "sample %d", i)
	}

	p.Radius = math.Inf(1)
	FillRanges(ranges, p, -1)
	for i, r := range ranges {
		assert.Equal(t, scan.RangeMax, r, "sample %d", i)
	}

	p.Radius = math.Inf(-1)
	FillRanges(ranges, p, -1)
	for i, r := range ranges {
		assert.Equal(t, 0.0, r, "sample %d", i)
	}
}

func TestFillRanges_LineModeFiniteAndNonNegative(t *testing.T) {
	for _, p := range []params.Params{
		{Mode: params.ModeLine, Slope: 1, Intercept: 1},
		{Mode: params.ModeLine, Slope: 0, Intercept: 1},
		{Mode: params.ModeLine, Slope: -2, Intercept: 0.5},
		{Mode: params.ModeLine, Slope: 1e9, Intercept: -4},
	} {
		for _, z := range []float64{0, -0.025, -1, -2, -2.025} {
			ranges := make([]float64, scan.NumRanges)
			FillRanges(ranges, p, z)
			assert.Len(t, ranges, scan.NumRanges)
			for i, r := range ranges {
				assert.False(t, math.IsNaN(r) || math.IsInf(r, 0), "params %+v z=%v sample %d = %v", p, z, i, r)
				assert.GreaterOrEqual(t, r, 0.0)
			}
		}
	}
}

func TestFillRanges_LineModeMatchesFormula(t *testing.T) {
	p := params.Params{Mode: params.ModeLine, Slope: 1, Intercept: 1}
	ranges := make([]float64, scan.NumRanges)
	FillRanges(ranges, p, -2)

	for i, r := range ranges {
		angle := scan.AngleMin + float64(i)*scan.AngleIncrement - AngleOffset
		want := 1 / (math.Cos(angle) - math.Sin(angle))
		if want < 0 {
			want = 0
		}
		assert.InDelta(t, want, r, 1e-9, "sample %d", i)
	}
}

func TestLineRange_Degenerate(t *testing.T) {
	// slope 0 and angle 0: the ray runs along the x axis, parallel to y = 1.
	assert.Equal(t, scan.RangeMax, LineRange(0, 1, 0))
	// slope 1 and angle π/4: the ray runs along y = x, parallel to y = x + 1.
	assert.Equal(t, scan.RangeMax, LineRange(1, 1, math.Pi/4))
}

func TestLineRange_Regular(t *testing.T) {
	// r = b / (m*cos(a) - sin(a)); no clamping at this level.
	assert.InDelta(t, -1.0, LineRange(0, 1, math.Pi/2), 1e-12)
	assert.InDelta(t, 1.0, LineRange(0, 1, -math.Pi/2), 1e-12)
	assert.InDelta(t, 2.0, LineRange(0, -2, math.Pi/2), 1e-12)
}

func TestModelRange_UnknownModeUsesRadius(t *testing.T) {
	p := params.Params{Mode: "spiral", Radius: 7}
	assert.Equal(t, 7.0, ModelRange(p, 0.3))
}
