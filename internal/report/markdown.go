package report

import (
	"fmt"
	"io"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// RenderMarkdown writes the full analysis as a markdown report.
func RenderMarkdown(out io.Writer, a *model.Analysis) error {
	var err error
	w := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(out, format, args...)
		}
	}

	w("# Valuation Analysis %s\n\n", a.ID)
	w("| | |\n|---|---|\n")
	w("| Subject | %s |\n", a.SubjectID)
	w("| Building area | %s SF |\n", printer.Sprintf("%.0f", a.SubjectSF))
	w("| Weight profile | %s |\n", a.Profile)
	if !a.ValuationDate.IsZero() {
		w("| Valuation date | %s |\n", a.ValuationDate.Format("2006-01-02"))
	}
	w("| **Indicated value** | **%s** |\n", money(a.IndicatedValue))
	w("| Reconciled | %s |\n", psf(a.Estimate.ReconciledPSF))
	w("| Value range | %s – %s |\n", psf(a.ValueRange.MinPSF), psf(a.ValueRange.MaxPSF))
	w("| Confidence | %s |\n\n", a.Estimate.Confidence)

	w("## Composite scores\n\n")
	w("| Property | Composite score | $/SF |\n|---|---:|---:|\n")
	for _, s := range a.Scores {
		if s.PropertyID == a.SubjectID {
			w("| **%s** | **%.3f** | |\n", s.PropertyID, s.Score)
			continue
		}
		w("| %s | %.3f | %.2f |\n", s.PropertyID, s.Score, s.PSF)
	}
	w("\n")

	est := a.Estimate
	w("## Price estimate\n\n")
	w("| Method | $/SF | Weight |\n|---|---:|---:|\n")
	w("| Bracket interpolation (%s) | %.2f | %.1f%% |\n",
		bracketLabel(est.Bracket), est.InterpolatedPSF, est.MethodWeights.Interpolation*100)
	w("| Regression, %s (R²=%.3f) | %.2f | %.1f%% |\n",
		est.RegressionMethod, est.RSquared, est.RegressionPSF, est.MethodWeights.Regression*100)
	w("| **Reconciled** | **%.2f** | |\n\n", est.ReconciledPSF)
	if est.Degenerate {
		w("Regression was degenerate (no score variance); the mean comparable $/SF is shown for reference only.\n\n")
	}
	w("%s\n\n", est.Rationale)

	if len(a.Ranks) > 0 {
		w("## Attribute ranks\n\n")
		writeRankTable(w, a)
	}

	if len(a.DroppedAttributes) > 0 {
		w("## Dropped attributes\n\n")
		for _, name := range a.DroppedAttributes {
			w("- `%s`: not present on every property; remaining weights renormalized\n", name)
		}
		w("\n")
	}

	if len(a.ExcludedComps) > 0 {
		w("## Excluded comparables\n\n")
		w("| Property | Reason |\n|---|---|\n")
		for _, e := range a.ExcludedComps {
			w("| %s | %s |\n", e.PropertyID, e.Reason)
		}
		w("\n")
	}

	return err
}

func writeRankTable(w func(string, ...any), a *model.Analysis) {
	attrs := a.Ranks.Attributes()

	w("| Property |")
	for _, attr := range attrs {
		w(" %s |", attr)
	}
	w("\n|---|")
	for range attrs {
		w("---:|")
	}
	w("\n")

	for _, s := range a.Scores {
		w("| %s |", s.PropertyID)
		for _, attr := range attrs {
			w(" %.1f |", a.Ranks[attr][s.PropertyID])
		}
		w("\n")
	}
	w("\n")
}
