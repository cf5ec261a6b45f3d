// Package pipeline runs the full MCDA valuation: qualification
// filtering, time adjustment, ranking, composite scoring, the two PSF
// estimators, and reconciliation into an indicated value.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/appraisal-cli/internal/estimate"
	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/profile"
	"github.com/sells-group/appraisal-cli/internal/scorer"
)

// Request is one valuation batch: a subject, its candidate comparables,
// and the resolved weight profile. AnalysisID is the caller's
// correlation id; the engine itself is deterministic and stamps nothing
// random into the output.
type Request struct {
	AnalysisID             string
	Subject                model.PropertyRecord
	Comparables            []model.PropertyRecord
	Profile                *model.WeightProfile
	ValuationDate          time.Time
	AnnualAppreciationRate float64
}

// Engine executes valuation requests. Safe for concurrent use; it
// holds only immutable policy.
type Engine struct {
	policy estimate.Policy
	robust bool
}

// NewEngine returns an engine with the given reconciliation policy.
// With robust set, regression uses the Theil–Sen fit instead of OLS.
func NewEngine(policy estimate.Policy, robust bool) *Engine {
	return &Engine{policy: policy, robust: robust}
}

// Run executes the pipeline for one request. Data-shape problems
// (insufficient comparables, missing or non-numeric ranking attributes)
// are fatal and return an error with no partial result. Numerical
// degeneracies (zero score variance, out-of-range subject) always
// produce a usable, clearly-flagged result instead.
func (e *Engine) Run(ctx context.Context, req Request) (*model.Analysis, error) {
	if req.Subject.BuildingSF <= 0 {
		return nil, eris.Errorf("pipeline: subject %q has no building area", req.Subject.ID)
	}
	if req.Profile == nil {
		return nil, eris.New("pipeline: weight profile is required")
	}

	valid, excluded := qualify(req.Comparables)
	if len(valid) < model.MinComparables {
		return nil, &model.InsufficientDataError{Valid: len(valid), Required: model.MinComparables}
	}

	if req.AnnualAppreciationRate != 0 {
		valid = adjustSales(valid, req.ValuationDate, req.AnnualAppreciationRate)
	}

	props := append([]model.PropertyRecord{req.Subject}, valid...)
	eff, dropped := profile.Effective(req.Profile, props)
	if len(eff.Attributes) == 0 {
		return nil, eris.Errorf("pipeline: no profile attribute of %q is present on every property", req.Profile.Name)
	}

	table, err := scorer.Rank(req.Subject, valid, eff)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rank")
	}
	scores := scorer.Compose(table, req.Subject, valid, eff)
	subjectScore, ok := scorer.SubjectScore(scores)
	if !ok {
		return nil, eris.New("pipeline: subject missing from composite scores")
	}

	points := make([]estimate.DataPoint, 0, len(valid))
	for _, s := range scores {
		if s.PropertyID != model.SubjectID {
			points = append(points, estimate.DataPoint{ID: s.PropertyID, Score: s.Score, PSF: s.PSF})
		}
	}

	// The two estimators are independent given the scores.
	var bracket *estimate.BracketResult
	var reg estimate.RegressionResult
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bracket, err = estimate.Interpolate(subjectScore, points)
		return err
	})
	g.Go(func() error {
		reg = estimate.Fit(points, subjectScore, e.robust)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: estimate")
	}

	rec := estimate.Reconcile(bracket, reg, len(valid), e.policy)

	minPSF, maxPSF := psfRange(points)
	analysis := &model.Analysis{
		ID:            req.AnalysisID,
		Profile:       req.Profile.Name,
		ValuationDate: req.ValuationDate,
		SubjectID:     req.Subject.ID,
		SubjectSF:     req.Subject.BuildingSF,
		SubjectScore:  subjectScore,
		Ranks:         table,
		Scores:        scores,
		Estimate: model.PriceEstimate{
			InterpolatedPSF:  bracket.PSF,
			RegressionPSF:    reg.PredictedPSF,
			RSquared:         reg.RSquared,
			Beta:             reg.Beta,
			RegressionMethod: reg.Method,
			Degenerate:       reg.Degenerate,
			ReconciledPSF:    rec.PSF,
			MethodWeights:    rec.Weights,
			Confidence:       bracket.Confidence,
			Rationale:        rec.Rationale,
			Bracket:          bracket.Bracket,
		},
		ValueRange:        model.ValueRange{MinPSF: minPSF, MaxPSF: maxPSF},
		IndicatedValue:    rec.PSF * req.Subject.BuildingSF,
		DroppedAttributes: dropped,
		ExcludedComps:     excluded,
	}

	zap.L().Info("pipeline: valuation complete",
		zap.String("subject", req.Subject.ID),
		zap.String("profile", req.Profile.Name),
		zap.Int("comparables", len(valid)),
		zap.Float64("subject_score", subjectScore),
		zap.Float64("reconciled_psf", rec.PSF),
		zap.Float64("indicated_value", analysis.IndicatedValue),
		zap.String("confidence", string(bracket.Confidence)),
	)

	return analysis, nil
}

// qualify splits candidate comparables into usable evidence and
// excluded records. Every exclusion is reported in the output, not just
// logged.
func qualify(comps []model.PropertyRecord) ([]model.PropertyRecord, []model.Exclusion) {
	valid := make([]model.PropertyRecord, 0, len(comps))
	var excluded []model.Exclusion
	for _, c := range comps {
		if reason := c.DisqualifyReason(); reason != "" {
			excluded = append(excluded, model.Exclusion{PropertyID: c.ID, Reason: reason})
			zap.L().Warn("pipeline: comparable excluded",
				zap.String("property", c.ID),
				zap.String("reason", reason),
			)
			continue
		}
		valid = append(valid, c)
	}
	return valid, excluded
}

// adjustSales returns copies of the comparables with time-adjusted sale
// prices. Input records stay untouched.
func adjustSales(comps []model.PropertyRecord, valuationDate time.Time, rate float64) []model.PropertyRecord {
	out := make([]model.PropertyRecord, len(comps))
	for i, c := range comps {
		sale := *c.Sale
		sale.AdjustedPrice = AdjustForTime(sale.Price, sale.Date, valuationDate, rate)
		c.Sale = &sale
		out[i] = c
	}
	return out
}

func psfRange(points []estimate.DataPoint) (minPSF, maxPSF float64) {
	minPSF, maxPSF = points[0].PSF, points[0].PSF
	for _, p := range points[1:] {
		if p.PSF < minPSF {
			minPSF = p.PSF
		}
		if p.PSF > maxPSF {
			maxPSF = p.PSF
		}
	}
	return minPSF, maxPSF
}
