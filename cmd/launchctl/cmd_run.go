package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
)

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, clearCmd, statusCmd)

	addTargetFlags(startCmd)
	addFilterFlags(startCmd)
	startCmd.Flags().String("mode", string(domain.ModeExternalTimer), "driver mode: EXTERNAL_TIMER or SELF_RESCHEDULING_SESSION")
	startCmd.Flags().Uint("delay", 0, "seconds between attempts (session and loop drivers)")
	startCmd.Flags().Uint("max", 1, "maximum successful deployments")
	startCmd.Flags().Bool("allow-placeholder-images", false, "also deploy candidates without a real image")

	statusCmd.Flags().Int("logs", 10, "number of log entries to show")
	statusCmd.Flags().Bool("json", false, "print the raw status as JSON")
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new auto-launch run, replacing any previous one",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		target, err := targetFromFlags(cmd)
		if err != nil {
			return err
		}
		source, filters := filtersFromFlags(cmd)
		mode, _ := cmd.Flags().GetString("mode")
		delay, _ := cmd.Flags().GetUint("delay")
		limit, _ := cmd.Flags().GetUint("max")
		allowPlaceholder, _ := cmd.Flags().GetBool("allow-placeholder-images")
		requireImage := !allowPlaceholder

		cfg, err := rt.orch.Start(ctx, orchestrator.StartRequest{
			Mode:             domain.Mode(mode),
			Launchpad:        target.Launchpad,
			Agent:            target.Agent,
			Chain:            target.Chain,
			Source:           source,
			Wallet:           target.Wallet,
			AgentAPIKey:      target.AgentAPIKey,
			Tax:              target.Tax,
			MinVolume:        filters.MinVolume,
			TrendFilter:      filters.Trend,
			RequireRealImage: &requireImage,
			DelaySeconds:     delay,
			MaxDeployments:   limit,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s started: %s via %s, max %d (%s)\n",
			cfg.RunID, cfg.Launchpad, cfg.Agent, cfg.MaxDeployments, cfg.Mode)
		return nil
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active run after any in-flight attempt",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		cfg, err := rt.orch.Stop(ctx)
		if err != nil {
			return err
		}
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No run to stop.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s is %s (%d/%d deployed).\n",
			cfg.RunID, orchestrator.StateOf(cfg), cfg.TotalDeployed, cfg.MaxDeployments)
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the run config and log",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		if err := rt.orch.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Run state cleared.")
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the run state and recent log entries",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		st, err := rt.orch.Status(ctx)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), st)
		}
		n, _ := cmd.Flags().GetInt("logs")
		return printStatus(cmd, st, n)
	}),
}

func printStatus(cmd *cobra.Command, st *orchestrator.Status, n int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State: %s\n", st.State)
	if cfg := st.Config; cfg != nil {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Run\t%s\n", cfg.RunID)
		fmt.Fprintf(w, "Mode\t%s\n", cfg.Mode)
		fmt.Fprintf(w, "Target\t%s via %s on %s\n", cfg.Launchpad, cfg.Agent, cfg.Chain)
		fmt.Fprintf(w, "Source\t%s (next index %d)\n", cfg.Source, cfg.NextSourceIndex)
		fmt.Fprintf(w, "Deployed\t%d/%d\n", cfg.TotalDeployed, cfg.MaxDeployments)
		if cfg.LastRunAt != nil {
			fmt.Fprintf(w, "Last step\t%s\n", cfg.LastRunAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(st.Logs) == 0 || n <= 0 {
		return nil
	}
	fmt.Fprintln(out, "\nRecent log:")
	for _, e := range st.Logs[:min(n, len(st.Logs))] {
		fmt.Fprintf(out, "  %s  %-7s  %s\n", e.Time, e.Kind, e.Message)
	}
	return nil
}

