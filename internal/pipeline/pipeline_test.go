package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/estimate"
	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/profile"
)

var saleDate = time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

func comp(id string, sf, price float64, attrs map[string]any) model.PropertyRecord {
	return model.PropertyRecord{
		ID:         id,
		BuildingSF: sf,
		Attributes: attrs,
		Sale: &model.SaleRecord{
			Price:      price,
			Date:       saleDate,
			Conditions: model.SaleConditions{ArmsLength: true},
		},
	}
}

// warehouseRequest is a four-comparable industrial set with the ordinal
// attributes already resolved to scale values. COMP_2 has no office
// finish figure, so that attribute drops out of the profile.
func warehouseRequest(t *testing.T) Request {
	t.Helper()

	prof, err := profile.NewCatalog().Resolve("industrial_default")
	require.NoError(t, err)

	return Request{
		AnalysisID: "test-analysis",
		Subject: model.PropertyRecord{
			ID:         model.SubjectID,
			BuildingSF: 50000,
			Attributes: map[string]any{
				"clear_height":      28.0,
				"year_built":        1992.0,
				"condition":         3.0,
				"location_quality":  3.0,
				"building_sf":       50000.0,
				"office_finish_pct": 12.0,
			},
		},
		Comparables: []model.PropertyRecord{
			comp("COMP_1", 46000, 4556500, map[string]any{
				"clear_height": 30.0, "year_built": 2001.0, "condition": 4.0,
				"location_quality": 2.0, "building_sf": 46000.0, "office_finish_pct": 10.0,
			}),
			comp("COMP_2", 72000, 5493700, map[string]any{
				"clear_height": 24.0, "year_built": 1985.0, "condition": 2.0,
				"location_quality": 2.0, "building_sf": 72000.0,
			}),
			comp("COMP_3", 52000, 5426700, map[string]any{
				"clear_height": 32.0, "year_built": 2015.0, "condition": 5.0,
				"location_quality": 4.0, "building_sf": 52000.0, "office_finish_pct": 8.0,
			}),
			comp("COMP_4", 61000, 5642600, map[string]any{
				"clear_height": 26.0, "year_built": 1998.0, "condition": 4.0,
				"location_quality": 3.0, "building_sf": 61000.0, "office_finish_pct": 15.0,
			}),
		},
		Profile:       prof,
		ValuationDate: time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
}

func singleAttrProfile() *model.WeightProfile {
	return &model.WeightProfile{
		Name: "single",
		Attributes: map[string]model.AttributeWeight{
			"v": {Weight: 1, Direction: model.HigherIsBetter},
		},
	}
}

func TestEngine_Run_IndustrialWarehouse(t *testing.T) {
	eng := NewEngine(estimate.DefaultPolicy(), false)
	a, err := eng.Run(context.Background(), warehouseRequest(t))
	require.NoError(t, err)

	assert.Equal(t, "test-analysis", a.ID)
	assert.Equal(t, "industrial_default", a.Profile)
	assert.Equal(t, model.SubjectID, a.SubjectID)
	assert.InDelta(t, 3.079545, a.SubjectScore, 1e-6)
	assert.Equal(t, []string{"office_finish_pct"}, a.DroppedAttributes)
	assert.Empty(t, a.ExcludedComps)

	// Composite order, best first: COMP_3, COMP_1, SUBJECT, COMP_4, COMP_2.
	require.Len(t, a.Scores, 5)
	wantScores := []struct {
		id    string
		score float64
	}{
		{"COMP_3", 1.113636},
		{"COMP_1", 2.744318},
		{model.SubjectID, 3.079545},
		{"COMP_4", 3.164773},
		{"COMP_2", 4.897727},
	}
	for i, w := range wantScores {
		assert.Equal(t, w.id, a.Scores[i].PropertyID, "position %d", i)
		assert.InDelta(t, w.score, a.Scores[i].Score, 1e-6, "score of %s", w.id)
	}

	est := a.Estimate
	assert.Equal(t, "COMP_1", est.Bracket.LowerID)
	assert.Equal(t, "COMP_4", est.Bracket.UpperID)
	assert.False(t, est.Bracket.Extrapolated)
	assert.InDelta(t, 93.829891, est.InterpolatedPSF, 1e-6)
	assert.Equal(t, model.ConfidenceHigh, est.Confidence)

	assert.Equal(t, estimate.MethodOLS, est.RegressionMethod)
	assert.False(t, est.Degenerate)
	assert.InDelta(t, -7.550130, est.Beta, 1e-6)
	assert.InDelta(t, 0.929279, est.RSquared, 1e-6)
	assert.InDelta(t, 92.303525, est.RegressionPSF, 1e-6)

	assert.InDelta(t, 0.435549, est.MethodWeights.Interpolation, 1e-6)
	assert.InDelta(t, 0.564451, est.MethodWeights.Regression, 1e-6)
	assert.InDelta(t, 92.968332, est.ReconciledPSF, 1e-6)
	assert.Contains(t, est.Rationale, "Strong model fit")

	assert.InDelta(t, 4648416.62, a.IndicatedValue, 0.01)
	assert.InDelta(t, 76.301389, a.ValueRange.MinPSF, 1e-6)
	assert.InDelta(t, 104.359615, a.ValueRange.MaxPSF, 1e-6)
}

func TestEngine_Run_Deterministic(t *testing.T) {
	eng := NewEngine(estimate.DefaultPolicy(), false)

	first, err := eng.Run(context.Background(), warehouseRequest(t))
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), warehouseRequest(t))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Run_MinimumComparables(t *testing.T) {
	nonArms := comp("D", 10000, 800000, map[string]any{"v": 2.5})
	nonArms.Sale.Conditions.ArmsLength = false

	req := Request{
		AnalysisID: "min-set",
		Subject:    model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{"v": 3.0}},
		Comparables: []model.PropertyRecord{
			comp("A", 10000, 1000000, map[string]any{"v": 4.0}),
			comp("B", 10000, 950000, map[string]any{"v": 2.0}),
			comp("C", 10000, 600000, map[string]any{"v": 1.0}),
			nonArms,
		},
		Profile: singleAttrProfile(),
	}
	eng := NewEngine(estimate.DefaultPolicy(), false)
	a, err := eng.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, a.ExcludedComps, 1)
	assert.Equal(t, "D", a.ExcludedComps[0].PropertyID)
	assert.Equal(t, "not an arm's-length sale", a.ExcludedComps[0].Reason)

	// Three comparables is enough for a result, but not for trusting
	// the regression over the bracket.
	est := a.Estimate
	assert.Greater(t, est.MethodWeights.Interpolation, est.MethodWeights.Regression)
	assert.Contains(t, est.Rationale, "Small comparable set")
	assert.InDelta(t, 95.662581, est.ReconciledPSF, 1e-6)
}

func TestEngine_Run_InsufficientComparables(t *testing.T) {
	noSale := model.PropertyRecord{ID: "C", BuildingSF: 10000, Attributes: map[string]any{"v": 1.0}}

	req := Request{
		Subject: model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{"v": 3.0}},
		Comparables: []model.PropertyRecord{
			comp("A", 10000, 1000000, map[string]any{"v": 4.0}),
			comp("B", 10000, 950000, map[string]any{"v": 2.0}),
			noSale,
		},
		Profile: singleAttrProfile(),
	}
	_, err := NewEngine(estimate.DefaultPolicy(), false).Run(context.Background(), req)

	var insufficient *model.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Valid)
	assert.Equal(t, model.MinComparables, insufficient.Required)
}

func TestEngine_Run_SubjectBestInSet(t *testing.T) {
	req := Request{
		AnalysisID: "best-in-set",
		Subject:    model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{"v": 10.0}},
		Comparables: []model.PropertyRecord{
			comp("A", 10000, 1000000, map[string]any{"v": 3.0}),
			comp("B", 10000, 900000, map[string]any{"v": 2.0}),
			comp("C", 10000, 800000, map[string]any{"v": 1.0}),
		},
		Profile: singleAttrProfile(),
	}
	a, err := NewEngine(estimate.DefaultPolicy(), false).Run(context.Background(), req)
	require.NoError(t, err)

	est := a.Estimate
	assert.True(t, est.Bracket.Extrapolated)
	assert.Equal(t, model.ConfidenceLow, est.Confidence)
	assert.Contains(t, est.Rationale, "outside comparable range")
	// Perfect fit plus extrapolation pushes regression to its cap floor.
	assert.InDelta(t, 0.8, est.MethodWeights.Regression, 1e-9)
	assert.InDelta(t, 110.0, est.ReconciledPSF, 1e-9)
	assert.InDelta(t, 2200000.0, a.IndicatedValue, 1e-6)
}

func TestEngine_Run_TimeAdjustment(t *testing.T) {
	valuation := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	twoYearsPrior := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	comps := []model.PropertyRecord{
		comp("A", 10000, 1000000, map[string]any{"v": 4.0}),
		comp("B", 10000, 900000, map[string]any{"v": 2.0}),
		comp("C", 10000, 800000, map[string]any{"v": 1.0}),
	}
	for i := range comps {
		comps[i].Sale.Date = twoYearsPrior
	}

	req := Request{
		Subject:                model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{"v": 3.0}},
		Comparables:            comps,
		Profile:                singleAttrProfile(),
		ValuationDate:          valuation,
		AnnualAppreciationRate: 0.05,
	}
	a, err := NewEngine(estimate.DefaultPolicy(), false).Run(context.Background(), req)
	require.NoError(t, err)

	// Exactly two 365.25-day years at 5%: every PSF scales by 1.1025.
	for _, s := range a.CompScores() {
		var raw float64
		switch s.PropertyID {
		case "A":
			raw = 100
		case "B":
			raw = 90
		case "C":
			raw = 80
		}
		assert.InDelta(t, raw*1.1025, s.PSF, 1e-9, "psf of %s", s.PropertyID)
	}

	// The caller's records stay untouched.
	for _, c := range comps {
		assert.Zero(t, c.Sale.AdjustedPrice)
	}
}

func TestEngine_Run_UnresolvedOrdinalFails(t *testing.T) {
	req := Request{
		Subject: model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{"v": 3.0}},
		Comparables: []model.PropertyRecord{
			comp("A", 10000, 1000000, map[string]any{"v": "good"}),
			comp("B", 10000, 950000, map[string]any{"v": 2.0}),
			comp("C", 10000, 600000, map[string]any{"v": 1.0}),
		},
		Profile: singleAttrProfile(),
	}
	_, err := NewEngine(estimate.DefaultPolicy(), false).Run(context.Background(), req)

	var typeErr *model.AttributeTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "A", typeErr.PropertyID)
	assert.Equal(t, "v", typeErr.Attribute)
}

func TestEngine_Run_NoUsableAttributes(t *testing.T) {
	req := Request{
		Subject: model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000, Attributes: map[string]any{}},
		Comparables: []model.PropertyRecord{
			comp("A", 10000, 1000000, map[string]any{"v": 4.0}),
			comp("B", 10000, 950000, map[string]any{"v": 2.0}),
			comp("C", 10000, 600000, map[string]any{"v": 1.0}),
		},
		Profile: singleAttrProfile(),
	}
	_, err := NewEngine(estimate.DefaultPolicy(), false).Run(context.Background(), req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "present on every property")
}

func TestEngine_Run_InvalidRequest(t *testing.T) {
	eng := NewEngine(estimate.DefaultPolicy(), false)

	_, err := eng.Run(context.Background(), Request{
		Subject: model.PropertyRecord{ID: model.SubjectID, BuildingSF: 0},
		Profile: singleAttrProfile(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no building area")

	_, err = eng.Run(context.Background(), Request{
		Subject: model.PropertyRecord{ID: model.SubjectID, BuildingSF: 20000},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight profile is required")
}
