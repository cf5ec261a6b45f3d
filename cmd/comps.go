package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/compstore"
	"github.com/sells-group/appraisal-cli/internal/ingest"
	"github.com/sells-group/appraisal-cli/internal/model"
)

var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Manage the comparable-sales store",
	Long:  "Commands for importing, listing, and removing comparable sales in the evidence store.",
}

// -- comps import --

var (
	compsImportFile  string
	compsImportSheet string
)

var compsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import comparable sales from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		comps, err := readCompsFile(compsImportFile, compsImportSheet)
		if err != nil {
			return err
		}
		if len(comps) == 0 {
			return eris.Errorf("no comparables found in %s", compsImportFile)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.PutComps(ctx, comps)
		if err != nil {
			return eris.Wrap(err, "import comps")
		}

		zap.L().Info("import complete",
			zap.Int("imported", n),
			zap.String("file", compsImportFile),
		)
		return nil
	},
}

func readCompsFile(path, sheet string) ([]model.PropertyRecord, error) {
	switch filepath.Ext(path) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ingest.ReadCompsCSV(f)
	case ".xlsx":
		return ingest.ReadCompsXLSX(path, ingest.XLSXOptions{SheetName: sheet})
	}
	return nil, eris.Errorf("unsupported import format %q (want .csv or .xlsx)", filepath.Ext(path))
}

// -- comps list --

var (
	compsListMinSF     float64
	compsListMaxSF     float64
	compsListSoldAfter string
	compsListLimit     int
	compsListOffset    int
)

var compsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored comparable sales",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter := compstore.Filter{
			MinBuildingSF: compsListMinSF,
			MaxBuildingSF: compsListMaxSF,
			Limit:         compsListLimit,
			Offset:        compsListOffset,
		}
		if compsListSoldAfter != "" {
			t, err := time.Parse("2006-01-02", compsListSoldAfter)
			if err != nil {
				return eris.Wrapf(err, "parse --sold-after %q", compsListSoldAfter)
			}
			filter.SoldAfter = t
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		comps, err := st.ListComps(ctx, filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tADDRESS\tSF\tSALE PRICE\tSALE DATE\tARMS-LENGTH")
		for _, c := range comps {
			date, arms := "", ""
			if c.Sale != nil {
				if !c.Sale.Date.IsZero() {
					date = c.Sale.Date.Format("2006-01-02")
				}
				arms = fmt.Sprintf("%t", c.Sale.Conditions.ArmsLength)
			}
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%s\t%s\n",
				c.ID, c.Address, c.BuildingSF, c.EffectivePrice(), date, arms)
		}
		return w.Flush()
	},
}

// -- comps delete --

var compsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a comparable from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if err := st.DeleteComp(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("comp deleted", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	compsImportCmd.Flags().StringVar(&compsImportFile, "file", "", "path to CSV or XLSX file (required)")
	compsImportCmd.Flags().StringVar(&compsImportSheet, "sheet", "", "worksheet name for XLSX imports (default first sheet)")
	_ = compsImportCmd.MarkFlagRequired("file")

	compsListCmd.Flags().Float64Var(&compsListMinSF, "min-sf", 0, "minimum building SF")
	compsListCmd.Flags().Float64Var(&compsListMaxSF, "max-sf", 0, "maximum building SF")
	compsListCmd.Flags().StringVar(&compsListSoldAfter, "sold-after", "", "only sales after this date (YYYY-MM-DD)")
	compsListCmd.Flags().IntVar(&compsListLimit, "limit", 100, "maximum rows")
	compsListCmd.Flags().IntVar(&compsListOffset, "offset", 0, "rows to skip")

	compsCmd.AddCommand(compsImportCmd)
	compsCmd.AddCommand(compsListCmd)
	compsCmd.AddCommand(compsDeleteCmd)
	rootCmd.AddCommand(compsCmd)
}
