package model

import "time"

// SubjectID is the reserved identifier for the subject property. The
// subject never carries sale data; every other property in an analysis
// is a comparable sale.
const SubjectID = "SUBJECT"

// PropertyRecord represents one observed property: the subject or a
// comparable sale. Records are built once from external input and not
// mutated afterwards; the pipeline works on copies.
type PropertyRecord struct {
	ID         string         `json:"id"`
	Address    string         `json:"address,omitempty"`
	BuildingSF float64        `json:"building_sf"`
	Attributes map[string]any `json:"attributes"`
	Sale       *SaleRecord    `json:"sale,omitempty"`
}

// SaleRecord holds the transaction details of a comparable sale.
type SaleRecord struct {
	Price          float64        `json:"price"`
	Date           time.Time      `json:"date"`
	PropertyRights string         `json:"property_rights,omitempty"`
	Financing      Financing      `json:"financing"`
	Conditions     SaleConditions `json:"conditions_of_sale"`

	// AdjustedPrice is the time-adjusted sale price, set by the
	// pipeline before PSF computation. Zero means no adjustment was
	// applied and Price is used as-is.
	AdjustedPrice float64 `json:"adjusted_price,omitempty"`
}

// Financing describes how a sale was financed.
type Financing struct {
	Type string `json:"type,omitempty"`
}

// SaleConditions holds sale-qualification flags.
type SaleConditions struct {
	ArmsLength bool `json:"arms_length"`
}

// IsSubject reports whether the record is the subject property.
func (p *PropertyRecord) IsSubject() bool {
	return p.ID == SubjectID
}

// EffectivePrice returns the time-adjusted sale price when set, the raw
// sale price otherwise. Zero for the subject.
func (p *PropertyRecord) EffectivePrice() float64 {
	if p.Sale == nil {
		return 0
	}
	if p.Sale.AdjustedPrice > 0 {
		return p.Sale.AdjustedPrice
	}
	return p.Sale.Price
}

// PSF returns the effective sale price per square foot of building
// area. Zero for the subject or when building area is missing.
func (p *PropertyRecord) PSF() float64 {
	if p.BuildingSF <= 0 {
		return 0
	}
	return p.EffectivePrice() / p.BuildingSF
}

// NumericAttribute returns the named attribute as a float64. The second
// return is false when the attribute is absent or not numeric. Ordinal
// strings must already have been resolved through an ordinal scale at
// ingest; an unresolved string is not numeric.
func (p *PropertyRecord) NumericAttribute(name string) (float64, bool) {
	raw, ok := p.Attributes[name]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// HasAttribute reports whether the attribute key is present at all,
// regardless of type.
func (p *PropertyRecord) HasAttribute(name string) bool {
	_, ok := p.Attributes[name]
	return ok
}

// DisqualifyReason returns a human-readable reason the record cannot be
// used as valuation evidence, or "" if it qualifies. Disqualified
// comparables are excluded before ranking begins.
func (p *PropertyRecord) DisqualifyReason() string {
	switch {
	case p.Sale == nil:
		return "no sale record"
	case p.Sale.Price <= 0:
		return "missing sale price"
	case p.Sale.Date.IsZero():
		return "missing sale date"
	case !p.Sale.Conditions.ArmsLength:
		return "not an arm's-length sale"
	case p.BuildingSF <= 0:
		return "missing building area"
	}
	return ""
}
