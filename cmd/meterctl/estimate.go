package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/estimator"
)

func newEstimateCmd(cfg *viper.Viper) *cobra.Command {
	var bodyPath, model string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Quote the prepaid cost of a request body",
		Long:  "Reads a provider-shaped JSON body from --file or stdin and prints the token and cost estimate the proxy would charge.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			var body []byte
			if bodyPath != "" && bodyPath != "-" {
				body, err = os.ReadFile(bodyPath)
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			req := estimator.ParseRequest(body, model)
			if cmd.Flags().Changed("model") {
				req.Model = model
			}
			est := estimator.New(cat)
			quote := est.Estimate(req.Model, req.Messages)
			entry := cat.Lookup(req.Model)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:         %s\n", quote.Model)
			if !entry.Enabled {
				fmt.Fprintln(out, "routable:      no (priced with default entry)")
			}
			fmt.Fprintf(out, "input tokens:  %d\n", quote.InputTokens)
			fmt.Fprintf(out, "output tokens: %d\n", quote.OutputTokens)
			fmt.Fprintf(out, "cost:          %s %s\n", quote.TotalCost.StringFixed(estimator.CostPlaces), quote.Currency)
			fmt.Fprintf(out, "minimum cost:  %s %s\n", est.MinimumCost(req.Model).StringFixed(estimator.CostPlaces), quote.Currency)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bodyPath, "file", "f", "", "Request body file (default: stdin)")
	cmd.Flags().StringVar(&model, "model", "google/gemini-2.5-flash", "Model to price (default: the body's model, else google/gemini-2.5-flash)")
	return cmd
}
