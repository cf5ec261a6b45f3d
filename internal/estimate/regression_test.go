package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFit_OLS_PerfectLine(t *testing.T) {
	res := Fit(pts(), 2.5, false)

	assert.Equal(t, MethodOLS, res.Method)
	assert.False(t, res.Degenerate)
	assert.InDelta(t, -10.0, res.Beta, 1e-9)
	assert.InDelta(t, 120.0, res.Alpha, 1e-9)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
	assert.InDelta(t, 95.0, res.PredictedPSF, 1e-9)
}

func TestFit_OLS_NoisyFit_RSquaredBounded(t *testing.T) {
	points := []DataPoint{
		{ID: "C1", Score: 1.0, PSF: 108},
		{ID: "C2", Score: 2.0, PSF: 103},
		{ID: "C3", Score: 3.0, PSF: 88},
		{ID: "C4", Score: 4.0, PSF: 84},
	}
	res := Fit(points, 2.5, false)

	assert.Equal(t, MethodOLS, res.Method)
	assert.Negative(t, res.Beta)
	assert.GreaterOrEqual(t, res.RSquared, 0.0)
	assert.LessOrEqual(t, res.RSquared, 1.0)
	assert.Greater(t, res.RSquared, 0.9, "near-linear data should fit well")
}

func TestFit_Degenerate_SingleDistinctScore(t *testing.T) {
	points := []DataPoint{
		{ID: "C1", Score: 2.0, PSF: 100},
		{ID: "C2", Score: 2.0, PSF: 90},
		{ID: "C3", Score: 2.0, PSF: 95},
	}
	res := Fit(points, 2.5, false)

	assert.True(t, res.Degenerate)
	assert.Equal(t, MethodMeanPSF, res.Method)
	assert.Zero(t, res.Beta)
	assert.Zero(t, res.RSquared)
	assert.InDelta(t, 95.0, res.PredictedPSF, 1e-9)
}

func TestFit_IdenticalPSFs(t *testing.T) {
	points := []DataPoint{
		{ID: "C1", Score: 1.0, PSF: 90},
		{ID: "C2", Score: 2.0, PSF: 90},
		{ID: "C3", Score: 3.0, PSF: 90},
	}
	res := Fit(points, 2.0, false)

	assert.False(t, res.Degenerate)
	assert.InDelta(t, 0.0, res.Beta, 1e-12)
	// The flat line explains the (zero) variance exactly.
	assert.InDelta(t, 1.0, res.RSquared, 1e-12)
	assert.InDelta(t, 90.0, res.PredictedPSF, 1e-9)
}

func TestFit_TheilSen_OutlierResistance(t *testing.T) {
	// Clean -10 slope with one badly low sale.
	points := []DataPoint{
		{ID: "C1", Score: 1.0, PSF: 100},
		{ID: "C2", Score: 2.0, PSF: 90},
		{ID: "C3", Score: 3.0, PSF: 80},
		{ID: "C4", Score: 4.0, PSF: 10},
	}

	ols := Fit(points, 2.5, false)
	robust := Fit(points, 2.5, true)

	assert.Equal(t, MethodTheilSen, robust.Method)
	assert.False(t, robust.Degenerate)
	// The median-of-slopes fit is dragged less by the outlier.
	assert.Less(t, math.Abs(robust.Beta-(-10)), math.Abs(ols.Beta-(-10)))
	assert.GreaterOrEqual(t, robust.RSquared, 0.0)
	assert.LessOrEqual(t, robust.RSquared, 1.0)
}

func TestFit_TheilSen_PerfectLine(t *testing.T) {
	res := Fit(pts(), 3.5, true)

	assert.Equal(t, MethodTheilSen, res.Method)
	assert.InDelta(t, -10.0, res.Beta, 1e-9)
	assert.InDelta(t, 120.0, res.Alpha, 1e-9)
	assert.InDelta(t, 85.0, res.PredictedPSF, 1e-9)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
}
