// Package report renders a valuation analysis as a terminal table,
// markdown, or an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// printer formats numbers with thousands separators.
var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func psf(v float64) string {
	return printer.Sprintf("$%.2f/SF", v)
}

// RenderTable writes a compact terminal rendering of the analysis.
func RenderTable(out io.Writer, a *model.Analysis) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ANALYSIS\t%s\n", a.ID)
	fmt.Fprintf(w, "Profile\t%s\n", a.Profile)
	if !a.ValuationDate.IsZero() {
		fmt.Fprintf(w, "Valuation date\t%s\n", a.ValuationDate.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "Subject\t%s (%s SF)\n", a.SubjectID, printer.Sprintf("%.0f", a.SubjectSF))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROPERTY\tSCORE\t$/SF")
	for _, s := range a.Scores {
		if s.PropertyID == a.SubjectID {
			fmt.Fprintf(w, "%s *\t%.3f\t\n", s.PropertyID, s.Score)
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.2f\n", s.PropertyID, s.Score, s.PSF)
	}
	fmt.Fprintln(w)

	est := a.Estimate
	fmt.Fprintf(w, "Bracket interpolation\t%s\t(bracket %s)\n", psf(est.InterpolatedPSF), bracketLabel(est.Bracket))
	fmt.Fprintf(w, "Regression (%s)\t%s\t(R²=%.3f)\n", est.RegressionMethod, psf(est.RegressionPSF), est.RSquared)
	fmt.Fprintf(w, "Method weights\t%.1f%% / %.1f%%\t(interpolation / regression)\n",
		est.MethodWeights.Interpolation*100, est.MethodWeights.Regression*100)
	fmt.Fprintf(w, "Reconciled\t%s\n", psf(est.ReconciledPSF))
	fmt.Fprintf(w, "Value range\t%s – %s\n", psf(a.ValueRange.MinPSF), psf(a.ValueRange.MaxPSF))
	fmt.Fprintf(w, "Indicated value\t%s\n", money(a.IndicatedValue))
	fmt.Fprintf(w, "Confidence\t%s\n", est.Confidence)
	fmt.Fprintf(w, "Rationale\t%s\n", est.Rationale)

	if len(a.DroppedAttributes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Dropped attributes\t%v\n", a.DroppedAttributes)
	}
	if len(a.ExcludedComps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "EXCLUDED\tREASON")
		for _, e := range a.ExcludedComps {
			fmt.Fprintf(w, "%s\t%s\n", e.PropertyID, e.Reason)
		}
	}

	return w.Flush()
}

func bracketLabel(b model.Bracket) string {
	if b.Extrapolated {
		return fmt.Sprintf("extrapolated from %s, %s", b.LowerID, b.UpperID)
	}
	if b.LowerID == b.UpperID {
		return fmt.Sprintf("exact match %s", b.LowerID)
	}
	return fmt.Sprintf("%s – %s", b.LowerID, b.UpperID)
}
