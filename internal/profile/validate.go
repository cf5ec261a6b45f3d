package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// WeightTolerance is the floating tolerance for the weight-sum
// invariant.
const WeightTolerance = 1e-6

// Validate checks a weight profile against the invariants the ranking
// core requires: a non-empty name, at least one attribute, every weight
// in (0,1] with a known direction, and weights summing to 1.0 within
// tolerance.
func Validate(p *model.WeightProfile) error {
	var errs []string

	if p.Name == "" {
		errs = append(errs, "profile name is required")
	}
	if len(p.Attributes) == 0 {
		errs = append(errs, "profile must define at least one attribute")
	}

	for name, aw := range p.Attributes {
		if aw.Weight <= 0 || aw.Weight > 1 {
			errs = append(errs, fmt.Sprintf("attribute %q: weight %g outside (0,1]", name, aw.Weight))
		}
		if !aw.Direction.Valid() {
			errs = append(errs, fmt.Sprintf("attribute %q: unknown direction %q", name, aw.Direction))
		}
	}

	if sum := p.WeightSum(); len(p.Attributes) > 0 && math.Abs(sum-1.0) > WeightTolerance {
		errs = append(errs, fmt.Sprintf("weights sum to %.9f, want 1.0 ± %g", sum, WeightTolerance))
	}

	for attr, scale := range p.Ordinals {
		if len(scale.Levels) == 0 {
			errs = append(errs, fmt.Sprintf("ordinal scale for %q has no levels", attr))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("invalid weight profile: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Effective restricts a profile to the attributes present on every
// given property and renormalizes the remaining weights to sum to 1.0.
// The dropped attribute names are returned sorted. Presence means the
// key exists; type checking is the ranker's job.
func Effective(p *model.WeightProfile, props []model.PropertyRecord) (*model.WeightProfile, []string) {
	kept := make(map[string]model.AttributeWeight, len(p.Attributes))
	var dropped []string

	for name, aw := range p.Attributes {
		present := true
		for i := range props {
			if !props[i].HasAttribute(name) {
				present = false
				break
			}
		}
		if present {
			kept[name] = aw
		} else {
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)

	if len(dropped) == 0 {
		return p, nil
	}

	var sum float64
	for _, aw := range kept {
		sum += aw.Weight
	}
	if sum > 0 {
		for name, aw := range kept {
			aw.Weight /= sum
			kept[name] = aw
		}
	}

	zap.L().Warn("profile: attributes dropped from scoring",
		zap.String("profile", p.Name),
		zap.Strings("dropped", dropped),
	)

	return &model.WeightProfile{
		Name:       p.Name,
		Attributes: kept,
		Ordinals:   p.Ordinals,
	}, dropped
}
