package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/provider"
)

var providersOutput string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := loadRegistry()
		if err != nil {
			return err
		}
		return writeProviders(cmd.OutOrStdout(), registry, providersOutput)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().StringVarP(&providersOutput, "output", "o", "table", "output format (table, json)")
}

func writeProviders(w io.Writer, registry *provider.Registry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Providers []provider.Provider `json:"providers"`
			Count     int                 `json:"count"`
		}{registry.All(), registry.Len()})
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tFEED")
		for _, p := range registry.All() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.DisplayName, p.RSSFeed)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
