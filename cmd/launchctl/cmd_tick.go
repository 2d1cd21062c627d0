package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stepCmd, sessionCmd)
	sessionCmd.Flags().Bool("follow", false, "start another session while the previous one asks to continue")
}

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Run one orchestrator step (the external timer tick)",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		timer, err := rt.timer()
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		res, err := timer.Tick(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	}),
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run one bounded self-rescheduling session",
	Args:  cobra.NoArgs,
	RunE: withRuntime(true, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
		follow, _ := cmd.Flags().GetBool("follow")
		session := rt.session()

		for {
			res, err := session.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session: %d steps, %d deployed, ended: %s\n",
				res.Steps, res.Deployed, res.Reason)
			if !follow || !res.Continue || ctx.Err() != nil {
				return nil
			}
		}
	}),
}

