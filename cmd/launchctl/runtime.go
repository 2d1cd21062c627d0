package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/config"
	"token-launchpad/internal/deploy"
	"token-launchpad/internal/driver"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
)

// runtime is the set of components one command works with.
type runtime struct {
	cfg      *config.Config
	logger   *log.Logger
	registry *deploy.Registry
	deployer orchestrator.Deployer
	notifier orchestrator.Notifier
	store    storage.RunStateStore
	orch     *orchestrator.Orchestrator
	cleanup  func()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		cfg.Deploy.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	return cfg, nil
}

// newRuntime builds the components. withStore opens the run state backend.
func newRuntime(cmd *cobra.Command, withStore bool) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	logger := log.New(out, "[launchctl] ", log.LstdFlags)

	notifier, err := app.NewNotifier(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		registry: app.NewRegistry(),
		notifier: notifier,
		cleanup:  func() {},
	}
	rt.deployer = app.NewDeployer(cfg, rt.registry, logger)

	if withStore {
		store, cleanup, err := app.OpenStore(cmd.Context(), cfg, logger)
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.cleanup = cleanup
		rt.orch = orchestrator.New(orchestrator.Options{
			Store:          store,
			Source:         app.NewSource(cfg, logger),
			Deployer:       rt.deployer,
			Notifier:       notifier,
			ValidateTarget: app.ValidateTarget(rt.registry),
			Logger:         logger,
		})
	}
	return rt, nil
}

func (rt *runtime) timer() (*driver.Timer, error) {
	return driver.NewTimer(driver.TimerOptions{
		Schedule: rt.cfg.Timer.Schedule,
		Stepper:  rt.orch,
		Store:    rt.store,
		Timeout:  rt.cfg.Timer.TickTimeout,
		Logger:   rt.logger,
	})
}

func (rt *runtime) session() *driver.Session {
	return driver.NewSession(driver.SessionOptions{
		Stepper: rt.orch,
		Store:   rt.store,
		Budget:  rt.cfg.Session.Budget,
		Margin:  rt.cfg.Session.Margin,
		Logger:  rt.logger,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withRuntime(withStore bool, fn func(ctx context.Context, cmd *cobra.Command, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd, withStore)
		if err != nil {
			return err
		}
		defer rt.cleanup()
		return fn(cmd.Context(), cmd, rt)
	}
}
