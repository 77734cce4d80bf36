package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/telemetry"
	"github.com/memvault/memvault/pkg/api"
	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/config"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
	"github.com/memvault/memvault/pkg/metrics"
	"github.com/memvault/memvault/pkg/session"
	"github.com/memvault/memvault/pkg/sharingcore"
	"github.com/memvault/memvault/pkg/upload"
)

var foreground bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the memvaultd server",
	Long: `Start the memvaultd server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/memvault/config.yaml.

Examples:
  # Start with the default config
  memvaultd start

  # Start with a custom config file
  memvaultd start --config /etc/memvault/config.yaml

  # Start with environment variable overrides
  MEMVAULT_LOGGING_LEVEL=DEBUG memvaultd start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", true, "Run in foreground")
}

// extraReadersSetter is satisfied by every capsulestore.Store backend, but
// isn't part of the capsulestore.Store interface itself: installing the
// SharingCore membership hook is wiring concern, not a domain operation.
type extraReadersSetter interface {
	SetExtraReaders(fn capsulestore.ExtraReaders)
}

// capsuleStoreMetricsSetter is satisfied by every capsulestore.Store backend
// that reports Prometheus instrumentation, for the same reason
// extraReadersSetter exists: metrics wiring isn't part of the domain
// interface.
type capsuleStoreMetricsSetter interface {
	SetMetrics(m *metrics.CapsuleStoreMetrics)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "memvaultd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "memvaultd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("memvaultd starting", "version", Version, "commit", Commit)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	capsules, err := config.CreateCapsuleStore(cfg.CapsuleStore)
	if err != nil {
		return fmt.Errorf("failed to initialize capsule store: %w", err)
	}
	logger.Info("capsule store initialized", "backend", cfg.CapsuleStore.Backend)

	region, err := config.CreateBlobRegion(ctx, cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}
	logger.Info("blob store initialized", "backend", cfg.BlobStore.Backend)

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	uploadMetrics := metrics.NewUploadMetrics(metricsRegistry)
	capsuleStoreMetrics := metrics.NewCapsuleStoreMetrics(metricsRegistry)

	if setter, ok := capsules.(capsuleStoreMetricsSetter); ok {
		setter.SetMetrics(capsuleStoreMetrics)
	}

	sessions := session.NewService(upload.MaxActivePerPrincipal)
	uploads := upload.NewService(sessions, region, capsules)
	uploads.SetMetrics(uploadMetrics)

	owners := newCapsuleOwnerResolver(capsules)
	sharing := sharingcore.NewMemStore(owners)

	if setter, ok := capsules.(extraReadersSetter); ok {
		setter.SetExtraReaders(func(capsuleID ids.CapsuleId, caller model.PersonRef) bool {
			// ExtraReaders has no context parameter; CheckResourceAccess
			// only uses ctx for tracing, so a background context is safe here.
			check, err := sharing.CheckResourceAccess(context.Background(), model.ResourceCapsule, string(capsuleID), caller)
			if err != nil {
				return false
			}
			return check.Allowed
		})
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics server listening", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	} else {
		logger.Info("metrics collection disabled")
	}

	apiServer := api.NewServer(cfg.API, api.Deps{Capsules: capsules, Uploads: uploads, Sharing: sharing})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	ttlTicker := time.NewTicker(cfg.Upload.TTLSweepInterval)
	defer ttlTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ttlTicker.C:
				if n := uploads.TickTTL(ctx, time.Now(), cfg.Upload.SessionTTL); n > 0 {
					logger.Info("expired upload sessions reaped", "count", n)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("memvaultd is running", "host", cfg.API.Host, "port", cfg.API.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	return nil
}
