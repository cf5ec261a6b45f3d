package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// WriteXLSX writes the analysis as a workbook with Summary, Scores, and
// Ranks sheets.
func WriteXLSX(path string, a *model.Analysis) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, a); err != nil {
		return err
	}
	if err := addScoresSheet(f, a); err != nil {
		return err
	}
	if err := addRanksSheet(f, a); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addSummarySheet(f *xlsx.File, a *model.Analysis) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	est := a.Estimate
	pairs := []struct {
		label string
		value any
	}{
		{"Analysis", a.ID},
		{"Subject", a.SubjectID},
		{"Building SF", a.SubjectSF},
		{"Weight profile", a.Profile},
		{"Subject score", a.SubjectScore},
		{"Interpolated $/SF", est.InterpolatedPSF},
		{"Bracket", bracketLabel(est.Bracket)},
		{"Regression $/SF", est.RegressionPSF},
		{"Regression method", est.RegressionMethod},
		{"R-squared", est.RSquared},
		{"Interpolation weight", est.MethodWeights.Interpolation},
		{"Regression weight", est.MethodWeights.Regression},
		{"Reconciled $/SF", est.ReconciledPSF},
		{"Indicated value", a.IndicatedValue},
		{"Value range low $/SF", a.ValueRange.MinPSF},
		{"Value range high $/SF", a.ValueRange.MaxPSF},
		{"Confidence", string(est.Confidence)},
		{"Rationale", est.Rationale},
	}
	if !a.ValuationDate.IsZero() {
		pairs = append(pairs, struct {
			label string
			value any
		}{"Valuation date", a.ValuationDate.Format("2006-01-02")})
	}

	for _, p := range pairs {
		row := sheet.AddRow()
		row.AddCell().SetString(p.label)
		setCell(row.AddCell(), p.value)
	}
	return nil
}

func addScoresSheet(f *xlsx.File, a *model.Analysis) error {
	sheet, err := f.AddSheet("Scores")
	if err != nil {
		return eris.Wrap(err, "report: add scores sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Property", "Composite score", "$/SF"} {
		header.AddCell().SetString(h)
	}
	for _, s := range a.Scores {
		row := sheet.AddRow()
		row.AddCell().SetString(s.PropertyID)
		row.AddCell().SetFloat(s.Score)
		if s.PropertyID != a.SubjectID {
			row.AddCell().SetFloat(s.PSF)
		}
	}
	return nil
}

func addRanksSheet(f *xlsx.File, a *model.Analysis) error {
	sheet, err := f.AddSheet("Ranks")
	if err != nil {
		return eris.Wrap(err, "report: add ranks sheet")
	}

	attrs := a.Ranks.Attributes()
	header := sheet.AddRow()
	header.AddCell().SetString("Property")
	for _, attr := range attrs {
		header.AddCell().SetString(attr)
	}

	for _, s := range a.Scores {
		row := sheet.AddRow()
		row.AddCell().SetString(s.PropertyID)
		for _, attr := range attrs {
			row.AddCell().SetFloat(a.Ranks[attr][s.PropertyID])
		}
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch x := v.(type) {
	case string:
		cell.SetString(x)
	case float64:
		cell.SetFloat(x)
	default:
		cell.SetString(fmt.Sprintf("%v", x))
	}
}
