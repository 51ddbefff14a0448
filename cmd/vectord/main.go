package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sacovo/vectord/pkg/client"
	"github.com/sacovo/vectord/pkg/codec"
	"github.com/sacovo/vectord/pkg/log"
	"github.com/sacovo/vectord/pkg/metrics"
	"github.com/sacovo/vectord/pkg/registry"
	"github.com/sacovo/vectord/pkg/server"
	"github.com/sacovo/vectord/pkg/storage"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vectord",
	Short:   "vectord is a network-accessible approximate nearest neighbor vector database",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <path>",
	Short: "Start a vectord server whose manifest file is path (snapshots go in an indexes/ directory beside it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
			cfg, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			applyFileConfig(cmd, cfg)
		}

		logLevel, _ := cmd.Flags().GetString("log-level")
		logJSON, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		workers, _ := cmd.Flags().GetInt("workers")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("LUXDB_SECRET")
		}
		if secret == "" {
			return fmt.Errorf("vectord: no shared secret given; pass --secret or set LUXDB_SECRET")
		}

		store, err := storage.Open(args[0])
		if err != nil {
			return fmt.Errorf("vectord: open store: %w", err)
		}
		metrics.RegisterComponent(metrics.ComponentStorage, true, "")

		reg, err := registry.New(store, workers)
		if err != nil {
			return fmt.Errorf("vectord: build registry: %w", err)
		}
		metrics.RegisterComponent(metrics.ComponentRegistry, true, "")

		token, err := codec.NewToken(secret, codec.TokenConfigFromEnv())
		if err != nil {
			return fmt.Errorf("vectord: derive token key: %w", err)
		}

		srv := server.New(host, port, token, reg)
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("vectord: listen: %w", err)
		}
		metrics.RegisterComponent(metrics.ComponentServer, true, "")

		collector := metrics.NewCollector(reg)
		collector.Start(15 * time.Second)
		defer collector.Stop()

		go func() {
			http.Handle("/metrics", metrics.Handler())
			http.HandleFunc("/health", metrics.HealthHandler())
			http.HandleFunc("/ready", metrics.ReadyHandler())
			http.HandleFunc("/live", metrics.LivenessHandler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "vectord: metrics server error: %v\n", err)
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Serve(); err != nil {
				errCh <- err
			}
		}()

		fmt.Printf("vectord listening on %s\n", srv.Addr().String())
		fmt.Printf("metrics at http://%s/metrics\n", metricsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("shutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "vectord: server error: %v\n", err)
		}

		srv.Shutdown()
		if err := reg.Close(); err != nil {
			return fmt.Errorf("vectord: close registry: %w", err)
		}
		fmt.Println("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Address to bind the server to")
	serveCmd.Flags().Int("port", 0, "Port to bind the server to (0 picks an ephemeral port)")
	serveCmd.Flags().Int("workers", registry.DefaultWorkerPoolSize, "Number of concurrent CPU-heavy index operations allowed")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9191", "Address for the /metrics, /health, /ready, /live HTTP endpoints")
	serveCmd.Flags().String("secret", "", "Shared secret for client authentication (falls back to LUXDB_SECRET)")
	serveCmd.Flags().String("config", "", "Optional YAML file supplying defaults for the flags above")
}

// pingCmd is a small smoke-test client command: it dials a running server
// and reports whether the handshake succeeds, handy for verifying a
// deployment without a full client integration.
var pingCmd = &cobra.Command{
	Use:   "ping <addr>",
	Short: "Check connectivity to a running vectord server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("LUXDB_SECRET")
		}
		if secret == "" {
			return fmt.Errorf("vectord: no shared secret given; pass --secret or set LUXDB_SECRET")
		}

		cl, err := client.Dial(args[0], secret)
		if err != nil {
			return fmt.Errorf("vectord: ping failed: %w", err)
		}
		defer cl.Close()

		fmt.Println("ok")
		return nil
	},
}

func init() {
	pingCmd.Flags().String("secret", "", "Shared secret for client authentication (falls back to LUXDB_SECRET)")
	rootCmd.AddCommand(pingCmd)
}
