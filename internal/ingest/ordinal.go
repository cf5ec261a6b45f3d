package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// ResolveOrdinals replaces ordinal string values on the record with
// their numeric positions from the profile's scales. Level lookup is
// case-insensitive. A string value for an attribute with no scale, or a
// string that names no level, is an error: the ranker would otherwise
// reject it later with less context.
func ResolveOrdinals(prof *model.WeightProfile, rec *model.PropertyRecord) error {
	for attr := range prof.Attributes {
		raw, ok := rec.Attributes[attr]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}

		scale, ok := prof.Ordinals[attr]
		if !ok {
			return eris.Errorf("ingest: property %q: attribute %q has string value %q but profile %q defines no ordinal scale for it",
				rec.ID, attr, s, prof.Name)
		}
		v, ok := scale.Levels[strings.ToLower(strings.TrimSpace(s))]
		if !ok {
			return eris.Errorf("ingest: property %q: %q is not a level of the %q scale (version %s)",
				rec.ID, s, attr, scale.Version)
		}
		rec.Attributes[attr] = v
	}
	return nil
}
