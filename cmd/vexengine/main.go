package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/vexdb/pkg/catalog"
	"github.com/cuemby/vexdb/pkg/events"
	"github.com/cuemby/vexdb/pkg/exec"
	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/metrics"
	"github.com/cuemby/vexdb/pkg/reconciler"
	"github.com/cuemby/vexdb/pkg/rpc"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vexengine",
	Short: "vexengine - a column-oriented engine for kNN and relational queries",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"vexengine version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the engine: open the catalogue and serve health and metrics endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		grpcAddr, _ := cmd.Flags().GetString("grpc-addr")
		httpAddr, _ := cmd.Flags().GetString("http-addr")
		coreThreads, _ := cmd.Flags().GetInt("core-threads")
		maxThreads, _ := cmd.Flags().GetInt("max-threads")
		keepAlive, _ := cmd.Flags().GetDuration("keep-alive")
		lockTimeout, _ := cmd.Flags().GetDuration("lock-timeout")
		volumeFactory, _ := cmd.Flags().GetString("volume-factory")
		checkpointInterval, _ := cmd.Flags().GetDuration("checkpoint-interval")
		useTLS, _ := cmd.Flags().GetBool("tls")
		certFile, _ := cmd.Flags().GetString("tls-cert")
		keyFile, _ := cmd.Flags().GetString("tls-key")

		fmt.Println("Starting vexengine...")
		fmt.Printf("  Data Directory: %s\n", dataDir)
		fmt.Printf("  gRPC Address: %s\n", grpcAddr)
		fmt.Printf("  HTTP Address: %s\n", httpAddr)
		fmt.Printf("  Volume Factory: %s\n", volumeFactory)
		fmt.Println()

		var vf storage.VolumeFactory
		switch volumeFactory {
		case "mmap":
			vf = storage.MmapVolumeFactory
		case "heap":
			vf = storage.HeapVolumeFactory
		default:
			return fmt.Errorf("unknown --volume-factory %q (want heap or mmap)", volumeFactory)
		}

		cat, err := catalog.Open(dataDir, storage.Options{
			VolumeFactory: vf,
			LockTimeout:   lockTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open catalogue: %w", err)
		}
		fmt.Println("✓ Catalogue opened")

		pool := exec.NewPool(exec.Config{
			CoreThreads: coreThreads,
			MaxThreads:  maxThreads,
			KeepAlive:   keepAlive,
		})
		fmt.Println("✓ Execution pool started")

		broker := events.NewBroker()
		broker.Start()
		sched := exec.NewScheduler(pool, broker)

		recon := reconciler.NewReconciler(cat, checkpointInterval)
		recon.Start()
		fmt.Println("✓ Reconciler started")

		metricsCollector := metrics.NewCollector(cat, pool)
		metricsCollector.Start()
		fmt.Println("✓ Metrics collector started")

		metrics.SetVersion(Version)
		metrics.RegisterComponent("catalog", true, "opened")
		metrics.RegisterComponent("rpc", false, "initializing")

		engine := rpc.NewEngine(cat, pool, sched)

		var tlsCfg *rpc.TLSConfig
		if useTLS {
			tlsCfg = &rpc.TLSConfig{CertFile: certFile, KeyFile: keyFile}
		}
		server, err := rpc.NewServer(engine, tlsCfg)
		if err != nil {
			return fmt.Errorf("failed to create rpc server: %w", err)
		}

		errCh := make(chan error, 2)
		go func() {
			if err := server.ServeGRPC(grpcAddr); err != nil {
				errCh <- fmt.Errorf("grpc server error: %w", err)
			}
		}()
		go func() {
			if err := server.ServeHTTP(httpAddr); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()

		time.Sleep(200 * time.Millisecond)
		metrics.RegisterComponent("rpc", true, "ready")

		fmt.Printf("✓ gRPC health service listening on %s\n", grpcAddr)
		fmt.Printf("✓ HTTP health/metrics listening on %s\n", httpAddr)
		fmt.Println()
		fmt.Println("vexengine is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}

		server.Stop()
		metricsCollector.Stop()
		recon.Stop()
		broker.Stop()
		pool.Stop()
		if err := cat.Close(); err != nil {
			return fmt.Errorf("failed to close catalogue: %w", err)
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("data-dir", "./vexengine-data", "Data directory for the catalogue")
	serveCmd.Flags().String("grpc-addr", "127.0.0.1:8080", "Address for the gRPC health service")
	serveCmd.Flags().String("http-addr", "127.0.0.1:9090", "Address for HTTP health/metrics endpoints")
	serveCmd.Flags().Int("core-threads", 4, "Core worker pool size")
	serveCmd.Flags().Int("max-threads", 16, "Max worker pool size under burst load")
	serveCmd.Flags().Duration("keep-alive", 30*time.Second, "Idle time before a transient worker above core-threads exits")
	serveCmd.Flags().Duration("lock-timeout", 5*time.Second, "How long to wait for the storage file lock before failing")
	serveCmd.Flags().String("volume-factory", "mmap", "Storage backing: heap or mmap")
	serveCmd.Flags().Duration("checkpoint-interval", 30*time.Second, "WAL checkpoint interval")
	serveCmd.Flags().Bool("tls", false, "Serve the gRPC health service over TLS")
	serveCmd.Flags().String("tls-cert", "", "TLS certificate file (required with --tls)")
	serveCmd.Flags().String("tls-key", "", "TLS private key file (required with --tls)")
}
