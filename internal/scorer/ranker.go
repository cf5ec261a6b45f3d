// Package scorer ranks properties attribute-by-attribute and combines
// the ranks into composite scores.
package scorer

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Rank builds the rank table for the subject and its valid comparables
// over every attribute in the profile. Rank 1 is the best-positioned
// property for the attribute's direction; properties with equal raw
// values share the arithmetic mean of the positions their block spans.
//
// A missing or non-numeric attribute value on any property in scope is
// fatal. An incomplete rank set would silently corrupt every downstream
// composite score, so there is no skip path.
func Rank(subject model.PropertyRecord, comps []model.PropertyRecord, prof *model.WeightProfile) (model.RankTable, error) {
	if len(comps) < model.MinComparables {
		return nil, &model.InsufficientDataError{Valid: len(comps), Required: model.MinComparables}
	}

	props := make([]model.PropertyRecord, 0, len(comps)+1)
	props = append(props, subject)
	props = append(props, comps...)

	// Iterate attributes in sorted order so rank construction is
	// deterministic run to run.
	names := prof.AttributeNames()
	sort.Strings(names)

	table := make(model.RankTable, len(names))
	for _, attr := range names {
		keys, err := sortKeys(attr, prof.Attributes[attr].Direction, subject, props)
		if err != nil {
			return nil, err
		}

		ranks := meanRanks(keys)
		byID := make(map[string]float64, len(props))
		for i := range props {
			byID[props[i].ID] = ranks[i]
		}
		table[attr] = byID
	}

	return table, nil
}

// sortKeys converts raw attribute values into sort keys where a smaller
// key means a better position for the attribute's direction.
func sortKeys(attr string, dir model.Direction, subject model.PropertyRecord, props []model.PropertyRecord) ([]float64, error) {
	subjectVal, err := numericValue(&subject, attr)
	if err != nil {
		return nil, err
	}

	keys := make([]float64, len(props))
	for i := range props {
		v, err := numericValue(&props[i], attr)
		if err != nil {
			return nil, err
		}
		switch dir {
		case model.HigherIsBetter:
			keys[i] = -v
		case model.LowerIsBetter:
			keys[i] = v
		case model.CloserToSubject:
			d := v - subjectVal
			if d < 0 {
				d = -d
			}
			keys[i] = d
		default:
			return nil, eris.Errorf("scorer: unknown direction %q for attribute %q", dir, attr)
		}
	}
	return keys, nil
}

func numericValue(p *model.PropertyRecord, attr string) (float64, error) {
	if !p.HasAttribute(attr) {
		return 0, &model.MissingAttributeError{PropertyID: p.ID, Attribute: attr}
	}
	v, ok := p.NumericAttribute(attr)
	if !ok {
		return 0, &model.AttributeTypeError{PropertyID: p.ID, Attribute: attr, Value: p.Attributes[attr]}
	}
	return v, nil
}

// meanRanks assigns ascending ranks 1..n by sort key, giving every
// member of a tied block the mean of the positions the block spans
// (two properties tied for 2nd/3rd both rank 2.5).
func meanRanks(keys []float64) []float64 {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	// Stable so equal keys keep input order; irrelevant to the mean
	// rank they receive but keeps iteration deterministic.
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})

	ranks := make([]float64, len(keys))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && keys[order[j+1]] == keys[order[i]] {
			j++
		}
		// Positions are 1-based: block spans i+1 .. j+1.
		mean := float64(i+1+j+1) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = mean
		}
		i = j + 1
	}
	return ranks
}
