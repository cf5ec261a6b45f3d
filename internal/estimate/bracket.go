// Package estimate turns composite scores into price-per-square-foot
// estimates via bracket interpolation and score regression, and
// reconciles the two into one indicated value.
package estimate

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// DataPoint pairs a comparable's composite score with its time-adjusted
// price per square foot.
type DataPoint struct {
	ID    string
	Score float64
	PSF   float64
}

// BracketResult is the interpolation estimate and the evidence behind
// it.
type BracketResult struct {
	PSF        float64
	Bracket    model.Bracket
	Confidence model.ConfidenceLabel

	// GapRatio is the bracket score gap relative to the full
	// comparable score range: 0 for an exact match, 1 when the
	// bracket spans the whole range or the subject falls outside it.
	GapRatio float64

	// Note is non-empty when the estimate was extrapolated.
	Note string
}

// tightBracketRatio is the gap ratio at or below which a true bracket
// is graded high confidence.
const tightBracketRatio = 0.25

// Interpolate finds the two comparables whose composite scores most
// tightly bracket the subject's score and linearly interpolates a PSF
// between them. An exact score match returns that comparable's PSF
// directly (zero-width bracket, high confidence); when several
// comparables share the subject's score the first in stable sorted
// order anchors the bracket. A subject outside the comparable range is
// extrapolated from the two nearest comparables on that side and graded
// low confidence, never silently treated as interpolation.
func Interpolate(subjectScore float64, points []DataPoint) (*BracketResult, error) {
	if len(points) < 2 {
		return nil, eris.Errorf("estimate: need at least 2 comparables to bracket, got %d", len(points))
	}

	sorted := make([]DataPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Score < sorted[b].Score
	})

	scoreRange := sorted[len(sorted)-1].Score - sorted[0].Score

	// Exact match: zero-width bracket on the first comparable in
	// sorted order sharing the subject's score.
	for _, p := range sorted {
		if p.Score == subjectScore {
			return &BracketResult{
				PSF:        p.PSF,
				Bracket:    model.Bracket{LowerID: p.ID, UpperID: p.ID},
				Confidence: model.ConfidenceHigh,
			}, nil
		}
	}

	var lower, upper *DataPoint
	for i := range sorted {
		p := &sorted[i]
		if p.Score < subjectScore {
			lower = p // keeps advancing to the largest score below
		} else if upper == nil {
			upper = p
		}
	}

	if lower == nil || upper == nil {
		return extrapolate(subjectScore, sorted)
	}

	frac := (subjectScore - lower.Score) / (upper.Score - lower.Score)
	psf := lower.PSF + frac*(upper.PSF-lower.PSF)

	gapRatio := 1.0
	if scoreRange > 0 {
		gapRatio = (upper.Score - lower.Score) / scoreRange
	}
	confidence := model.ConfidenceMedium
	if gapRatio <= tightBracketRatio {
		confidence = model.ConfidenceHigh
	}

	zap.L().Debug("estimate: bracket interpolation",
		zap.String("lower", lower.ID),
		zap.String("upper", upper.ID),
		zap.Float64("psf", psf),
		zap.Float64("gap_ratio", gapRatio),
	)

	return &BracketResult{
		PSF:        psf,
		Bracket:    model.Bracket{LowerID: lower.ID, UpperID: upper.ID},
		Confidence: confidence,
		GapRatio:   gapRatio,
	}, nil
}

// extrapolate projects the PSF line through the two nearest comparables
// on the subject's side of the score range.
func extrapolate(subjectScore float64, sorted []DataPoint) (*BracketResult, error) {
	var a, b DataPoint
	var side string
	if subjectScore < sorted[0].Score {
		a, b = sorted[0], sorted[1]
		side = "below"
	} else {
		a, b = sorted[len(sorted)-2], sorted[len(sorted)-1]
		side = "above"
	}

	var psf float64
	if b.Score == a.Score {
		// No usable slope; fall back to the nearest evidence.
		psf = (a.PSF + b.PSF) / 2
	} else {
		psf = a.PSF + (subjectScore-a.Score)/(b.Score-a.Score)*(b.PSF-a.PSF)
	}

	note := fmt.Sprintf("subject score %.3f falls %s the comparable range [%.3f, %.3f]; extrapolated from %s and %s",
		subjectScore, side, sorted[0].Score, sorted[len(sorted)-1].Score, a.ID, b.ID)

	zap.L().Warn("estimate: extrapolating outside comparable score range",
		zap.Float64("subject_score", subjectScore),
		zap.String("side", side),
		zap.String("nearest", a.ID),
	)

	return &BracketResult{
		PSF:        psf,
		Bracket:    model.Bracket{LowerID: a.ID, UpperID: b.ID, Extrapolated: true},
		Confidence: model.ConfidenceLow,
		GapRatio:   1,
		Note:       note,
	}, nil
}
