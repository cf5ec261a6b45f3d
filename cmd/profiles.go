package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect weight profiles",
	Long:  "Commands for listing and showing the weight profiles available for valuations.",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available weight profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := initCatalog()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tATTRIBUTES\tORDINAL SCALES")
		for _, name := range catalog.Names() {
			p, err := catalog.Resolve(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\n", p.Name, len(p.Attributes), len(p.Ordinals))
		}
		return w.Flush()
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a weight profile's attributes and scales",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := initCatalog()
		if err != nil {
			return err
		}
		p, err := catalog.Resolve(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Profile\t%s\n\n", p.Name)
		fmt.Fprintln(w, "ATTRIBUTE\tWEIGHT\tDIRECTION")

		names := p.AttributeNames()
		sort.Strings(names)
		for _, name := range names {
			aw := p.Attributes[name]
			fmt.Fprintf(w, "%s\t%.2f\t%s\n", name, aw.Weight, aw.Direction)
		}

		if len(p.Ordinals) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "ORDINAL SCALE\tVERSION\tLEVELS")
			scaled := make([]string, 0, len(p.Ordinals))
			for name := range p.Ordinals {
				scaled = append(scaled, name)
			}
			sort.Strings(scaled)
			for _, name := range scaled {
				scale := p.Ordinals[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, scale.Version, levelList(scale.Levels))
			}
		}
		return w.Flush()
	},
}

// levelList renders ordinal levels best-first.
func levelList(levels map[string]float64) string {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		return levels[names[a]] > levels[names[b]]
	})
	out := ""
	for i, name := range names {
		if i > 0 {
			out += " > "
		}
		out += name
	}
	return out
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
}
