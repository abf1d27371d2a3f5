package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/active"
	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/engine"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
)

var shutdownTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live capture engine",
	Long: `
Run the Strix sensor: open the configured capture source, decode traffic
through the transport codec pipeline, and serve metrics until interrupted.

Examples:
  strix run                         # Run with /etc/strix/config.yml
  strix run -c config.yml           # Run with a specific config file
  strix run -c config.yml -t 30s    # Allow 30s for graceful shutdown
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runEngine(cfg)
	},
}

func init() {
	runCmd.Flags().DurationVarP(&shutdownTimeout, "timeout", "t", 10*time.Second,
		"graceful shutdown timeout")
	rootCmd.AddCommand(runCmd)
}

func runEngine(cfg *config.Config) error {
	if err := log.Init(&cfg.Log); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	lg := log.GetLogger()

	if cfg.PIDFile != "" {
		pid := strconv.Itoa(os.Getpid())
		if err := os.WriteFile(cfg.PIDFile, []byte(pid), 0644); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer os.Remove(cfg.PIDFile)
	}

	var msrv *metrics.Server
	if cfg.Metrics.Enabled {
		msrv = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := msrv.Start(context.Background()); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	source, err := capture.New(cfg.Capture)
	if err != nil {
		return err
	}

	// Wire transmission stays behind the Injector interface; until a raw
	// socket injector is deployed the sensor audits response behavior.
	var injector active.Injector
	if cfg.Response.Enabled {
		injector = active.LogInjector{}
	}

	eng, err := engine.New(cfg, source, injector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	lg.WithField("node", cfg.Node.Hostname).Info("strix running")
	eng.Wait()
	eng.Stop()

	if msrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := msrv.Stop(sctx); err != nil {
			lg.WithError(err).Warn("metrics server shutdown")
		}
	}
	return nil
}
