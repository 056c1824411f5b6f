package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/boxrun/sandboxd/pkg/boxmgr"
	"github.com/boxrun/sandboxd/pkg/config"
	"github.com/boxrun/sandboxd/pkg/events"
	"github.com/boxrun/sandboxd/pkg/log"
	"github.com/boxrun/sandboxd/pkg/metrics"
	"github.com/boxrun/sandboxd/pkg/sandbox"
	"github.com/boxrun/sandboxd/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sandbox daemon",
	Long: `Run sandboxd as a long-lived daemon: maintains the prewarm pool,
serves Prometheus metrics, and keeps boxes alive until an interrupt signal
is received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		sessionIndirection, _ := cmd.Flags().GetBool("session-indirection")

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		fmt.Println("Starting sandboxd...")
		fmt.Printf("  Sandbox root: %s\n", cfg.SandboxRoot)
		fmt.Printf("  Prewarm count: %d\n", cfg.PrewarmCount)
		fmt.Printf("  Exec timeout: %s\n", cfg.ExecTimeout)
		fmt.Println()

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		store, err := storage.NewBoltSnapshotStore(cfg.SnapshotDir)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer store.Close()

		mgr := boxmgr.New(cfg, log.Logger, broker, store, 0)

		var opts []sandbox.Option
		if sessionIndirection {
			opts = append(opts, sandbox.WithSessionIndirection(sandbox.NewMemorySessionStore()))
		}
		svc := sandbox.New(mgr, cfg.ExecTimeout, opts...)

		socketPath, _ := cmd.Flags().GetString("socket")
		serveCtx, stopServe := context.WithCancel(context.Background())
		defer stopServe()
		go func() {
			if err := sandbox.Serve(serveCtx, svc, socketPath); err != nil {
				log.Logger.Error().Err(err).Msg("debug socket server exited")
			}
		}()
		fmt.Printf("✓ Debug socket: %s\n", socketPath)

		collector := metrics.NewCollector(mgr)
		collector.Start()
		defer collector.Stop()
		fmt.Println("✓ Metrics collector started")

		metrics.SetVersion(Version)
		metrics.RegisterComponent("storage", true, "")
		metrics.RegisterComponent("boxmgr", true, "")

		if cfg.PrewarmCount > 0 {
			mgr.FillPrewarmPool(context.Background())
			fmt.Printf("✓ Prewarm pool filled (%d boxes)\n", cfg.PrewarmCount)
		}

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.HandleFunc("/health", metrics.HealthHandler())
			mux.HandleFunc("/ready", metrics.ReadyHandler())
			mux.HandleFunc("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Printf("Metrics server error: %v\n", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", metricsAddr)

		fmt.Println()
		fmt.Println("sandboxd is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, box := range mgr.ListBoxes() {
			if err := mgr.DestroyBox(shutdownCtx, box.ID); err != nil {
				log.Logger.Warn().Err(err).Str("box_id", box.ID).Msg("destroy on shutdown failed")
			}
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config overlay")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus metrics endpoint")
	serveCmd.Flags().String("socket", "/run/sandboxd/sandboxd.sock", "Path to the local debug/control socket used by 'sandboxd exec'")
	serveCmd.Flags().Bool("session-indirection", false, "Use a session_id -> box_id indirection layer instead of the minimal model")
}
