package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/domain"
)

func init() {
	rootCmd.AddCommand(fetchCmd, deployCmd)

	addFilterFlags(fetchCmd)
	fetchCmd.Flags().String("chain", domain.ChainAny, "chain filter")
	fetchCmd.Flags().Int("index", 0, "rotation index (rotate source only)")
	fetchCmd.Flags().Int("limit", 0, "maximum candidates to show")
	fetchCmd.Flags().Bool("json", false, "print candidates as JSON")

	addTargetFlags(deployCmd)
	f := deployCmd.Flags()
	f.String("name", "", "token name (required)")
	f.String("symbol", "", "token symbol (required)")
	f.String("image", "", "image URL")
	f.String("website", "", "website URL")
	f.String("twitter", "", "twitter URL or handle")
	f.String("telegram", "", "telegram URL")
	f.String("description", "", "description")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one candidate batch from the token sources",
	Args:  cobra.NoArgs,
	RunE: withRuntime(false, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		selector, filters := filtersFromFlags(cmd)
		filters.Limit, _ = cmd.Flags().GetInt("limit")
		index, _ := cmd.Flags().GetInt("index")

		res := app.NewSource(rt.cfg, rt.logger).Fetch(ctx, selector, filters, index)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}

		out := cmd.OutOrStdout()
		if res.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", res.SourceLabel, res.Err)
		}
		fmt.Fprintf(out, "%d candidates from %s (next index %d)\n", len(res.Candidates), res.SourceLabel, res.NextSourceIndex)
		if len(res.Candidates) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tNAME\tCHAIN\tVOLUME 24H\tCHANGE\tIMAGE")
		for _, c := range res.Candidates {
			image := "-"
			if c.HasRealImage {
				image = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%+.1f%%\t%s\n",
				c.Symbol, c.Name, c.Chain, c.Volume24h, c.PriceChange, image)
		}
		return w.Flush()
	}),
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the deployment protocol once for a hand-entered token",
	Args:  cobra.NoArgs,
	RunE: withRuntime(false, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		target, err := requiredTarget(cmd, rt)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		c := domain.Candidate{SourceLabel: "manual"}
		c.Name, _ = f.GetString("name")
		c.Symbol, _ = f.GetString("symbol")
		c.ImageURL, _ = f.GetString("image")
		c.Website, _ = f.GetString("website")
		c.Twitter, _ = f.GetString("twitter")
		c.Telegram, _ = f.GetString("telegram")
		c.Description, _ = f.GetString("description")
		c.Chain = target.Chain
		if c.Name == "" || c.Symbol == "" {
			return fmt.Errorf("%w: --name and --symbol are required", errConfig)
		}

		out := rt.deployer.Deploy(ctx, c, target)
		if out.Success || out.Credentials != nil {
			if err := rt.notifier.Notify(ctx, c, out); err != nil {
				rt.logger.Printf("notify: %v", err)
			}
		}
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		if !out.Success {
			return fmt.Errorf("deployment failed: %s", out.Message)
		}
		return nil
	}),
}
