package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/compstore"
	"github.com/sells-group/appraisal-cli/internal/ingest"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/report"
)

var (
	valueInputPath string
	valueOutput    string
	valueOutPath   string
	valueUseStore  bool
)

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Run a valuation from an input document",
	Long:  "Reads a JSON valuation input (subject, comparable sales, weight profile), runs the full estimation pipeline, and renders the analysis.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(valueInputPath)
		if err != nil {
			return eris.Wrapf(err, "read input %s", valueInputPath)
		}

		catalog, err := initCatalog()
		if err != nil {
			return err
		}

		req, err := ingest.ParseDocument(data, catalog)
		if err != nil {
			return err
		}

		if valueUseStore {
			if err := mergeStoredComps(ctx, &req); err != nil {
				return err
			}
		}

		req.AnalysisID = uuid.New().String()

		analysis, err := newEngine().Run(ctx, req)
		if err != nil {
			return err
		}

		switch valueOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		case "table":
			return report.RenderTable(os.Stdout, analysis)
		case "markdown":
			return report.RenderMarkdown(os.Stdout, analysis)
		case "xlsx":
			out := valueOutPath
			if out == "" {
				out = fmt.Sprintf("analysis-%s.xlsx", analysis.ID)
			}
			if err := report.WriteXLSX(out, analysis); err != nil {
				return err
			}
			zap.L().Info("analysis written", zap.String("path", out))
			return nil
		}
		return eris.Errorf("unknown output format %q (want json, table, markdown, or xlsx)", valueOutput)
	},
}

// mergeStoredComps appends comparables from the store that the input
// document doesn't already name, with their ordinal attributes resolved
// through the request's profile.
func mergeStoredComps(ctx context.Context, req *pipeline.Request) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	stored, err := st.ListComps(ctx, compstore.Filter{Limit: 1000})
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.Comparables))
	for _, c := range req.Comparables {
		seen[c.ID] = true
	}

	added := 0
	for _, c := range stored {
		if seen[c.ID] {
			continue
		}
		if err := ingest.ResolveOrdinals(req.Profile, &c); err != nil {
			return err
		}
		req.Comparables = append(req.Comparables, c)
		added++
	}

	zap.L().Info("merged stored comparables",
		zap.Int("stored", len(stored)),
		zap.Int("added", added),
	)
	return nil
}

func init() {
	valueCmd.Flags().StringVar(&valueInputPath, "input", "", "path to valuation input JSON (required)")
	valueCmd.Flags().StringVar(&valueOutput, "output", "table", "output format: json, table, markdown, or xlsx")
	valueCmd.Flags().StringVar(&valueOutPath, "out", "", "output path for xlsx (default analysis-<id>.xlsx)")
	valueCmd.Flags().BoolVar(&valueUseStore, "use-store", false, "append comparables from the comp store")
	_ = valueCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(valueCmd)
}
