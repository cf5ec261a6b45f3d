package model

import (
	"sort"
	"time"
)

// RankTable maps attribute name -> property id -> rank over the
// combined set {subject} ∪ {valid comparables}. Rank 1 is the
// best-positioned property for that attribute and direction; ties carry
// the arithmetic mean of the positions their block spans.
type RankTable map[string]map[string]float64

// Attributes returns the ranked attribute names, sorted.
func (t RankTable) Attributes() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompositeScore is the weighted rank sum for one property. Lower score
// means a better property and therefore an expected higher price.
type CompositeScore struct {
	PropertyID string  `json:"property_id"`
	Score      float64 `json:"score"`
	PSF        float64 `json:"psf,omitempty"` // comparables only; time-adjusted
}

// ConfidenceLabel grades how much trust the bracket analysis supports.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// Bracket identifies the two comparables bounding the subject's
// composite score. For an exact score match both ids name the same
// comparable; for extrapolation both bounds lie on the same side.
type Bracket struct {
	LowerID      string `json:"lower_id,omitempty"`
	UpperID      string `json:"upper_id,omitempty"`
	Extrapolated bool   `json:"extrapolated,omitempty"`
}

// MethodWeights holds the reconciliation blend. The two weights sum to
// 1.0 within floating tolerance.
type MethodWeights struct {
	Interpolation float64 `json:"interpolation"`
	Regression    float64 `json:"regression"`
}

// PriceEstimate is the output record of the estimation stage.
type PriceEstimate struct {
	InterpolatedPSF  float64         `json:"interpolated_psf"`
	RegressionPSF    float64         `json:"regression_psf"`
	RSquared         float64         `json:"r_squared"`
	Beta             float64         `json:"beta"`
	RegressionMethod string          `json:"regression_method"`
	Degenerate       bool            `json:"degenerate_regression,omitempty"`
	ReconciledPSF    float64         `json:"reconciled_psf"`
	MethodWeights    MethodWeights   `json:"method_weights"`
	Confidence       ConfidenceLabel `json:"confidence"`
	Rationale        string          `json:"rationale"`
	Bracket          Bracket         `json:"bracket"`
}

// Exclusion records a comparable removed before ranking and why.
type Exclusion struct {
	PropertyID string `json:"property_id"`
	Reason     string `json:"reason"`
}

// ValueRange is the indicated PSF range from the comparable evidence.
type ValueRange struct {
	MinPSF float64 `json:"min_psf"`
	MaxPSF float64 `json:"max_psf"`
}

// Analysis is the full valuation output handed to the reporting
// collaborator.
type Analysis struct {
	ID            string    `json:"id"`
	Profile       string    `json:"profile"`
	ValuationDate time.Time `json:"valuation_date"`

	SubjectID    string  `json:"subject_id"`
	SubjectSF    float64 `json:"subject_building_sf"`
	SubjectScore float64 `json:"subject_score"`

	Ranks  RankTable        `json:"ranks"`
	Scores []CompositeScore `json:"scores"` // ascending score, stable

	Estimate       PriceEstimate `json:"estimate"`
	ValueRange     ValueRange    `json:"value_range"`
	IndicatedValue float64       `json:"indicated_value"`

	DroppedAttributes []string    `json:"dropped_attributes,omitempty"`
	ExcludedComps     []Exclusion `json:"excluded_comparables,omitempty"`
}

// CompScores returns the comparable scores only, preserving order.
func (a *Analysis) CompScores() []CompositeScore {
	out := make([]CompositeScore, 0, len(a.Scores))
	for _, s := range a.Scores {
		if s.PropertyID != SubjectID {
			out = append(out, s)
		}
	}
	return out
}
