package estimate

import (
	"sort"

	"go.uber.org/zap"
)

// Regression method names reported with every estimate so the result is
// auditable.
const (
	MethodOLS      = "ols"
	MethodTheilSen = "theil_sen"
	MethodMeanPSF  = "degenerate_mean"
)

// RegressionResult is the fitted price-vs-score model and its
// prediction at the subject's composite score.
type RegressionResult struct {
	Method       string
	Alpha        float64
	Beta         float64
	RSquared     float64
	PredictedPSF float64

	// Degenerate is set when the comparable scores carry no variance
	// and the prediction fell back to the mean PSF. The reconciler
	// must force the regression weight to zero in that case.
	Degenerate bool
}

// Fit fits psf = alpha + beta × score across the comparables and
// predicts the subject's PSF. With robust set, a Theil–Sen
// median-of-slopes fit replaces ordinary least squares. Fewer than two
// distinct comparable scores cannot support a slope; the result is then
// the mean PSF, flagged degenerate rather than returned as an error, so
// the reconciler still has a usable record to fall back on.
func Fit(points []DataPoint, subjectScore float64, robust bool) RegressionResult {
	if distinctScores(points) < 2 {
		res := RegressionResult{
			Method:       MethodMeanPSF,
			PredictedPSF: meanPSF(points),
			Degenerate:   true,
		}
		zap.L().Warn("estimate: degenerate regression, falling back to mean PSF",
			zap.Int("comparables", len(points)),
			zap.Float64("mean_psf", res.PredictedPSF),
		)
		return res
	}

	if robust {
		return fitTheilSen(points, subjectScore)
	}
	return fitOLS(points, subjectScore)
}

func fitOLS(points []DataPoint, subjectScore float64) RegressionResult {
	n := float64(len(points))
	var meanX, meanY float64
	for _, p := range points {
		meanX += p.Score
		meanY += p.PSF
	}
	meanX /= n
	meanY /= n

	var sxx, sxy float64
	for _, p := range points {
		dx := p.Score - meanX
		sxx += dx * dx
		sxy += dx * (p.PSF - meanY)
	}

	beta := sxy / sxx
	alpha := meanY - beta*meanX

	return RegressionResult{
		Method:       MethodOLS,
		Alpha:        alpha,
		Beta:         beta,
		RSquared:     rSquared(points, alpha, beta),
		PredictedPSF: alpha + beta*subjectScore,
	}
}

// fitTheilSen fits the median of all pairwise slopes with the median
// residual intercept. Resistant to a single outlier sale in a way OLS
// is not.
func fitTheilSen(points []DataPoint, subjectScore float64) RegressionResult {
	var slopes []float64
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			dx := points[j].Score - points[i].Score
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (points[j].PSF-points[i].PSF)/dx)
		}
	}

	beta := median(slopes)
	intercepts := make([]float64, len(points))
	for i, p := range points {
		intercepts[i] = p.PSF - beta*p.Score
	}
	alpha := median(intercepts)

	return RegressionResult{
		Method:       MethodTheilSen,
		Alpha:        alpha,
		Beta:         beta,
		RSquared:     rSquared(points, alpha, beta),
		PredictedPSF: alpha + beta*subjectScore,
	}
}

// rSquared is the fraction of PSF variance the fitted line explains,
// clamped to [0,1]. A robust fit can explain less than nothing on
// pathological data; a clamped zero reads correctly downstream.
func rSquared(points []DataPoint, alpha, beta float64) float64 {
	var meanY float64
	for _, p := range points {
		meanY += p.PSF
	}
	meanY /= float64(len(points))

	var ssRes, ssTot float64
	for _, p := range points {
		resid := p.PSF - (alpha + beta*p.Score)
		ssRes += resid * resid
		dy := p.PSF - meanY
		ssTot += dy * dy
	}

	if ssTot == 0 {
		// All PSFs identical and the line fits them exactly.
		return 1
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	if r2 > 1 {
		return 1
	}
	return r2
}

func distinctScores(points []DataPoint) int {
	seen := make(map[float64]struct{}, len(points))
	for _, p := range points {
		seen[p.Score] = struct{}{}
	}
	return len(seen)
}

func meanPSF(points []DataPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.PSF
	}
	return sum / float64(len(points))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
