package estimate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Policy holds the tunable coefficients of the reconciliation weighting
// function. The directions are contractual (see the tests); the exact
// values are appraisal policy, not law.
type Policy struct {
	// SampleDamping discounts regression on small comparable sets:
	// the regression weight scales by n/(n+SampleDamping).
	SampleDamping float64 `yaml:"sample_damping" mapstructure:"sample_damping"`

	// TightnessShift is the largest share of regression weight a
	// perfectly tight bracket can pull toward interpolation.
	TightnessShift float64 `yaml:"tightness_shift" mapstructure:"tightness_shift"`

	// ExtrapolationShift is the share of the remaining interpolation
	// weight moved to regression when the bracket is extrapolated.
	ExtrapolationShift float64 `yaml:"extrapolation_shift" mapstructure:"extrapolation_shift"`

	// MaxRegressionWeight caps the regression side of the blend so a
	// bracket never vanishes from the reconciliation entirely.
	MaxRegressionWeight float64 `yaml:"max_regression_weight" mapstructure:"max_regression_weight"`
}

// DefaultPolicy returns the standard reconciliation coefficients.
func DefaultPolicy() Policy {
	return Policy{
		SampleDamping:       2,
		TightnessShift:      0.1,
		ExtrapolationShift:  0.5,
		MaxRegressionWeight: 0.9,
	}
}

// Reconciliation is the blended value conclusion.
type Reconciliation struct {
	PSF       float64
	Weights   model.MethodWeights
	Rationale string
}

// Reconcile blends the interpolation and regression estimates into one
// indicated PSF. The weights always sum to 1.0 and move monotonically
// with three signals: comparable count (fewer comps favor
// interpolation), model fit (higher R² favors regression), and bracket
// tightness (a tighter bracket favors interpolation). A degenerate
// regression contributes nothing; an extrapolated bracket surrenders
// weight to regression.
func Reconcile(bracket *BracketResult, reg RegressionResult, n int, pol Policy) Reconciliation {
	var regW float64
	switch {
	case reg.Degenerate:
		regW = 0
	default:
		sizeFactor := float64(n) / (float64(n) + pol.SampleDamping)
		tightness := 1 - bracket.GapRatio // 1 = zero-width bracket
		regW = reg.RSquared * sizeFactor * (1 - pol.TightnessShift*tightness)
		if bracket.Bracket.Extrapolated {
			regW += pol.ExtrapolationShift * (1 - regW)
		}
		if regW > pol.MaxRegressionWeight {
			regW = pol.MaxRegressionWeight
		}
		if regW < 0 {
			regW = 0
		}
	}
	interpW := 1 - regW

	psf := interpW*bracket.PSF + regW*reg.PredictedPSF

	rec := Reconciliation{
		PSF: psf,
		Weights: model.MethodWeights{
			Interpolation: interpW,
			Regression:    regW,
		},
		Rationale: rationale(bracket, reg, n, interpW, regW),
	}

	zap.L().Info("estimate: reconciled",
		zap.Float64("psf", psf),
		zap.Float64("interp_weight", interpW),
		zap.Float64("regression_weight", regW),
		zap.String("rationale", rec.Rationale),
	)

	return rec
}

// rationale names the signal that dominated the blend.
func rationale(bracket *BracketResult, reg RegressionResult, n int, interpW, regW float64) string {
	switch {
	case reg.Degenerate:
		return "Degenerate regression (zero score variance); value rests entirely on bracket interpolation"
	case bracket.Bracket.Extrapolated:
		return fmt.Sprintf("Subject score outside comparable range (%s); weight shifted toward regression (R²=%.2f)", bracket.Note, reg.RSquared)
	case regW >= interpW:
		return fmt.Sprintf("Strong model fit (R²=%.2f) supports regression", reg.RSquared)
	case n < 5:
		return fmt.Sprintf("Small comparable set (n=%d) favors bracket interpolation", n)
	default:
		return fmt.Sprintf("Tight bracket (gap ratio %.2f) favors interpolation", bracket.GapRatio)
	}
}
