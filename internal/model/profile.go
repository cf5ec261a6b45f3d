package model

// Direction states how an attribute's raw values translate into
// desirability.
type Direction string

const (
	// HigherIsBetter ranks larger raw values ahead of smaller ones.
	HigherIsBetter Direction = "higher_is_better"
	// LowerIsBetter ranks smaller raw values ahead of larger ones.
	LowerIsBetter Direction = "lower_is_better"
	// CloserToSubject ranks by absolute distance from the subject's
	// raw value, nearest first.
	CloserToSubject Direction = "closer_to_subject"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case HigherIsBetter, LowerIsBetter, CloserToSubject:
		return true
	}
	return false
}

// AttributeWeight pairs a relative weight with a ranking direction.
type AttributeWeight struct {
	Weight    float64   `yaml:"weight" json:"weight"`
	Direction Direction `yaml:"direction" json:"direction"`
}

// OrdinalScale is a versioned mapping of ordinal level names to their
// integer positions on the scale. Ordinal attribute values are resolved
// through a scale at ingest; there is no implicit string comparison.
type OrdinalScale struct {
	Version string             `yaml:"version" json:"version"`
	Levels  map[string]float64 `yaml:"levels" json:"levels"`
}

// WeightProfile maps attribute names to weights and directions. Weights
// must sum to 1.0 within tolerance; see profile.Validate.
type WeightProfile struct {
	Name       string                     `yaml:"name" json:"name"`
	Attributes map[string]AttributeWeight `yaml:"attributes" json:"attributes"`
	Ordinals   map[string]OrdinalScale    `yaml:"ordinal_scales,omitempty" json:"ordinal_scales,omitempty"`
}

// WeightSum returns the sum of all attribute weights.
func (p *WeightProfile) WeightSum() float64 {
	var sum float64
	for _, aw := range p.Attributes {
		sum += aw.Weight
	}
	return sum
}

// AttributeNames returns the profile's attribute names in unspecified
// order.
func (p *WeightProfile) AttributeNames() []string {
	names := make([]string, 0, len(p.Attributes))
	for name := range p.Attributes {
		names = append(names, name)
	}
	return names
}
