package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/domain"
)

func newModelsCmd(cfg *viper.Viper) *cobra.Command {
	var provider, category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List enabled models with their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			entries := cat.ListEnabled()
			if provider != "" {
				p := domain.Provider(strings.ToLower(provider))
				if !p.Valid() {
					return fmt.Errorf("unknown provider %q", provider)
				}
				entries = cat.ByProvider(p)
			}
			if category != "" {
				c := domain.ModelCategory(strings.ToLower(category))
				if !c.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				kept := entries[:0]
				for _, e := range entries {
					if e.Category == c {
						kept = append(kept, e)
					}
				}
				entries = kept
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROVIDER\tCATEGORY\tINPUT/1K\tOUTPUT/1K")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Provider, e.Category, e.Pricing.InputPer1K, e.Pricing.OutputPer1K)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Only models routed to this provider")
	cmd.Flags().StringVar(&category, "category", "", "Only models of this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}
