// Package ingest parses valuation input documents and comparable-sales
// imports into the shapes the pipeline consumes.
package ingest

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/profile"
)

// Document is the JSON valuation input. weight_profile is either a
// profile name resolved against the catalog or an inline profile
// definition validated on parse.
type Document struct {
	SubjectProperty  propertyDoc       `json:"subject_property"`
	ComparableSales  []propertyDoc     `json:"comparable_sales"`
	WeightProfile    json.RawMessage   `json:"weight_profile"`
	ValuationDate    string            `json:"valuation_date,omitempty"`
	MarketParameters *MarketParameters `json:"market_parameters,omitempty"`
}

// MarketParameters carries market-conditions inputs for time adjustment.
type MarketParameters struct {
	AnnualAppreciationRate float64 `json:"annual_appreciation_rate"`
}

type propertyDoc struct {
	ID         string         `json:"id"`
	Address    string         `json:"address,omitempty"`
	BuildingSF float64        `json:"building_sf"`
	Attributes map[string]any `json:"attributes"`
	Sale       *saleDoc       `json:"sale,omitempty"`
}

type saleDoc struct {
	Price          float64              `json:"price"`
	Date           string               `json:"date"`
	PropertyRights string               `json:"property_rights,omitempty"`
	Financing      model.Financing      `json:"financing"`
	Conditions     model.SaleConditions `json:"conditions_of_sale"`
}

// ParseDocument decodes a valuation input document, resolves its weight
// profile against the catalog, and resolves ordinal attribute strings
// through the profile's scales. The returned request carries no
// AnalysisID; the caller stamps one.
func ParseDocument(data []byte, catalog *profile.Catalog) (pipeline.Request, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return pipeline.Request{}, eris.Wrap(err, "ingest: parse input document")
	}

	prof, err := resolveProfile(doc.WeightProfile, catalog)
	if err != nil {
		return pipeline.Request{}, err
	}

	subject, err := doc.SubjectProperty.toRecord()
	if err != nil {
		return pipeline.Request{}, err
	}
	if subject.ID == "" {
		subject.ID = model.SubjectID
	}

	comps := make([]model.PropertyRecord, 0, len(doc.ComparableSales))
	seen := make(map[string]bool, len(doc.ComparableSales))
	for _, cd := range doc.ComparableSales {
		c, err := cd.toRecord()
		if err != nil {
			return pipeline.Request{}, err
		}
		if c.ID == "" {
			return pipeline.Request{}, eris.New("ingest: comparable sale without an id")
		}
		if c.ID == model.SubjectID {
			return pipeline.Request{}, eris.Errorf("ingest: comparable sale may not use the reserved id %q", model.SubjectID)
		}
		if seen[c.ID] {
			return pipeline.Request{}, eris.Errorf("ingest: duplicate comparable id %q", c.ID)
		}
		seen[c.ID] = true
		comps = append(comps, c)
	}

	if err := ResolveOrdinals(prof, &subject); err != nil {
		return pipeline.Request{}, err
	}
	for i := range comps {
		if err := ResolveOrdinals(prof, &comps[i]); err != nil {
			return pipeline.Request{}, err
		}
	}

	req := pipeline.Request{
		Subject:     subject,
		Comparables: comps,
		Profile:     prof,
	}
	if doc.ValuationDate != "" {
		req.ValuationDate, err = parseDate(doc.ValuationDate)
		if err != nil {
			return pipeline.Request{}, eris.Wrap(err, "ingest: valuation_date")
		}
	}
	if doc.MarketParameters != nil {
		req.AnnualAppreciationRate = doc.MarketParameters.AnnualAppreciationRate
	}
	return req, nil
}

// resolveProfile accepts either a JSON string naming a catalog profile
// or an inline profile object.
func resolveProfile(raw json.RawMessage, catalog *profile.Catalog) (*model.WeightProfile, error) {
	if len(raw) == 0 {
		return nil, eris.New("ingest: weight_profile is required")
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return catalog.Resolve(name)
	}

	var inline model.WeightProfile
	if err := json.Unmarshal(raw, &inline); err != nil {
		return nil, eris.Wrap(err, "ingest: parse inline weight_profile")
	}
	if inline.Name == "" {
		inline.Name = "inline"
	}
	if err := profile.Validate(&inline); err != nil {
		return nil, eris.Wrap(err, "ingest: inline weight_profile")
	}
	return &inline, nil
}

func (d *propertyDoc) toRecord() (model.PropertyRecord, error) {
	rec := model.PropertyRecord{
		ID:         d.ID,
		Address:    d.Address,
		BuildingSF: d.BuildingSF,
		Attributes: d.Attributes,
	}
	if rec.Attributes == nil {
		rec.Attributes = map[string]any{}
	}
	if d.Sale != nil {
		sale := model.SaleRecord{
			Price:          d.Sale.Price,
			PropertyRights: d.Sale.PropertyRights,
			Financing:      d.Sale.Financing,
			Conditions:     d.Sale.Conditions,
		}
		if d.Sale.Date != "" {
			date, err := parseDate(d.Sale.Date)
			if err != nil {
				return model.PropertyRecord{}, eris.Wrapf(err, "ingest: sale date of %q", d.ID)
			}
			sale.Date = date
		}
		rec.Sale = &sale
	}
	return rec, nil
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Errorf("ingest: unparseable date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}
