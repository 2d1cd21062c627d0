package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/driver"
	"token-launchpad/internal/tui"
)

func init() {
	rootCmd.AddCommand(loopCmd)

	addTargetFlags(loopCmd)
	addFilterFlags(loopCmd)
	loopCmd.Flags().Duration("delay", 30*time.Second, "pause between attempts")
	loopCmd.Flags().Int("max", 1, "maximum successful deployments")
	loopCmd.Flags().Bool("allow-placeholder-images", false, "also deploy candidates without a real image")
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run the client-driven loop in an interactive terminal view",
	Long: "Runs fetch and deploy in the foreground with an in-memory dedup set.\n" +
		"Nothing is persisted; quitting stops after the current attempt.",
	Args: cobra.NoArgs,
	RunE: withRuntime(false, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		target, err := requiredTarget(cmd, rt)
		if err != nil {
			return err
		}

		selector, filters := filtersFromFlags(cmd)
		delay, _ := cmd.Flags().GetDuration("delay")
		limit, _ := cmd.Flags().GetInt("max")
		if limit < 1 {
			return fmt.Errorf("%w: --max must be at least 1", errConfig)
		}
		allowPlaceholder, _ := cmd.Flags().GetBool("allow-placeholder-images")

		model := tui.New(tui.Options{
			Source:   app.NewSource(rt.cfg, rt.logger),
			Deployer: rt.deployer,
			Config: driver.LoopConfig{
				Target:           target,
				Source:           selector,
				Filters:          filters,
				RequireRealImage: !allowPlaceholder,
				Delay:            delay,
				MaxDeployments:   limit,
			},
		})

		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("run terminal view: %w", err)
		}
		if sum := model.Summary(); sum != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Loop ended (%s): %d deployed in %d attempts\n", sum.Reason, sum.Deployed, sum.Attempts)
			for _, k := range sum.Keys {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", k)
			}
		}
		return nil
	}),
}
