package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Reserved comp-import column names. Every other column becomes a
// property attribute: numeric when the cell parses as a number, the raw
// string otherwise (ordinal levels stay strings until a profile
// resolves them).
const (
	colID         = "id"
	colAddress    = "address"
	colBuildingSF = "building_sf"
	colSalePrice  = "sale_price"
	colSaleDate   = "sale_date"
	colArmsLength = "arms_length"
	colFinancing  = "financing"
	colRights     = "property_rights"
)

// ReadCompsCSV parses a comparable-sales CSV with a header row. The
// arms_length column is optional; without it every row is treated as an
// arm's-length sale.
func ReadCompsCSV(r io.Reader) ([]model.PropertyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: csv: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: csv: read row")
		}
		rows = append(rows, record)
	}

	return parseCompRows(header, rows)
}

// parseCompRows maps header names onto comp records. Shared by the CSV
// and XLSX readers.
func parseCompRows(header []string, rows [][]string) ([]model.PropertyRecord, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colID, colBuildingSF, colSalePrice, colSaleDate} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("ingest: missing required column %q", required)
		}
	}

	comps := make([]model.PropertyRecord, 0, len(rows))
	for n, row := range rows {
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell(colID) == "" {
			continue // blank or trailing row
		}

		rec := model.PropertyRecord{
			ID:         cell(colID),
			Address:    cell(colAddress),
			Attributes: map[string]any{},
		}

		sf, err := strconv.ParseFloat(cell(colBuildingSF), 64)
		if err != nil {
			return nil, eris.Errorf("ingest: row %d (%s): building_sf %q is not numeric", n+2, rec.ID, cell(colBuildingSF))
		}
		rec.BuildingSF = sf

		price, err := strconv.ParseFloat(cell(colSalePrice), 64)
		if err != nil {
			return nil, eris.Errorf("ingest: row %d (%s): sale_price %q is not numeric", n+2, rec.ID, cell(colSalePrice))
		}
		sale := model.SaleRecord{
			Price:          price,
			PropertyRights: cell(colRights),
			Financing:      model.Financing{Type: cell(colFinancing)},
			Conditions:     model.SaleConditions{ArmsLength: true},
		}
		if d := cell(colSaleDate); d != "" {
			sale.Date, err = parseDate(d)
			if err != nil {
				return nil, eris.Wrapf(err, "ingest: row %d (%s): sale_date", n+2, rec.ID)
			}
		}
		if v := cell(colArmsLength); v != "" {
			sale.Conditions.ArmsLength = parseBool(v)
		}
		rec.Sale = &sale

		for i, name := range header {
			key := strings.ToLower(strings.TrimSpace(name))
			switch key {
			case colID, colAddress, colBuildingSF, colSalePrice, colSaleDate, colArmsLength, colFinancing, colRights:
				continue
			}
			if i >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[i])
			if raw == "" {
				continue
			}
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Attributes[key] = f
			} else {
				rec.Attributes[key] = raw
			}
		}

		comps = append(comps, rec)
	}
	return comps, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true
	}
	return false
}
