package scorer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Compose computes the weighted composite score for every property in
// the rank table: Score(p) = Σ weight(attr) × rank(p, attr). A lower
// score means a better property. The result is ordered ascending by
// score; equal scores keep the original input order (subject first,
// then comparables as given).
//
// The profile must be the same (possibly renormalized) profile the rank
// table was built from, so every property is scored with identical
// weights.
func Compose(table model.RankTable, subject model.PropertyRecord, comps []model.PropertyRecord, prof *model.WeightProfile) []model.CompositeScore {
	props := make([]model.PropertyRecord, 0, len(comps)+1)
	props = append(props, subject)
	props = append(props, comps...)

	// Sum attributes in sorted order. Map iteration order varies run to
	// run and float addition is not associative, so an unordered sum
	// would not reproduce bit-identical scores.
	names := prof.AttributeNames()
	sort.Strings(names)

	scores := make([]model.CompositeScore, 0, len(props))
	for i := range props {
		var total float64
		for _, attr := range names {
			total += prof.Attributes[attr].Weight * table[attr][props[i].ID]
		}
		cs := model.CompositeScore{
			PropertyID: props[i].ID,
			Score:      total,
		}
		if !props[i].IsSubject() {
			cs.PSF = props[i].PSF()
		}
		scores = append(scores, cs)
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score < scores[b].Score
	})

	zap.L().Debug("scorer: composite scores computed",
		zap.Int("properties", len(scores)),
		zap.Float64("best", scores[0].Score),
		zap.Float64("worst", scores[len(scores)-1].Score),
	)

	return scores
}

// SubjectScore extracts the subject's composite score from a scored
// set. The boolean is false if the subject is absent.
func SubjectScore(scores []model.CompositeScore) (float64, bool) {
	for _, s := range scores {
		if s.PropertyID == model.SubjectID {
			return s.Score, true
		}
	}
	return 0, false
}
