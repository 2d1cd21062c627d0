// Command launchctl is the operator CLI for the launchpad: it controls the
// persisted run, drives ticks and sessions by hand, browses tokens, runs
// one-off deployments and hosts the interactive client-driven loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitUnavailable = 3
)

// errConfig marks configuration problems (bad flags, bad config file).
var errConfig = errors.New("configuration error")

var rootCmd = &cobra.Command{
	Use:           "launchctl",
	Short:         "Operate the token launchpad auto-launch run",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", os.Getenv("LAUNCHPAD_CONFIG"), "path to a TOML or YAML config file")
	rootCmd.PersistentFlags().Bool("dry-run", false, "simulate deployments without calling upstream platforms")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log component activity to stderr")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errConfig, err)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConfig), errors.Is(err, orchestrator.ErrInvalidConfig):
		return exitConfig
	case errors.Is(err, storage.ErrUnavailable):
		return exitUnavailable
	default:
		return exitFailure
	}
}
