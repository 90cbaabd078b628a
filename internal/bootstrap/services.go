package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/genjobs/config"
	"github.com/target/genjobs/internal/adapters/jobrunner"
	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/data"
	"github.com/target/genjobs/internal/observability/statsd"
	"github.com/target/genjobs/internal/ports"
	"github.com/target/genjobs/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Auth          ports.Authenticator
	Store         core.JobStore
	Queue         *data.RedisJobQueue  // nil without Redis
	Events        *data.RedisJobEvents // nil without Redis
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   statsd.Sink
	MetricsClient *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	if !cfg.Metrics.IsEnabled() {
		return out
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  obsLogger,
	})
	if err != nil {
		obsLogger.Error("failed to initialise statsd client", "error", err)
		return out
	}
	out.MetricsClient = client
	out.MetricsSink = client
	return out
}

// NewServices wires the job store, lifecycle and API service for the configured backend.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)
	sink := observability.MetricsSink

	auth, err := BuildAuthenticator(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build authenticator: %w", err)
	}

	container := ServiceContainer{
		Auth:          auth,
		Observability: observability,
	}

	var lifecycle service.Lifecycle
	if deps.RedisClient != nil {
		container.Queue = data.NewRedisJobQueue(deps.RedisClient, cfg.Jobs.QueueKey)
		container.Events = data.NewRedisJobEvents(data.RedisJobEventsOptions{
			Client:  deps.RedisClient,
			Channel: cfg.Jobs.EventsChannel,
			Logger:  logger,
		})
		store, storeErr := data.NewQueueJobStore(data.QueueJobStoreOptions{
			Queue:  container.Queue,
			Logger: logger,
		})
		if storeErr != nil {
			return ServiceContainer{}, fmt.Errorf("build queue job store: %w", storeErr)
		}
		container.Store = store
		lifecycle = service.NewExternalLifecycle(logger)
		logger.Info("job store configured", "backend", "redis", "queue", cfg.Jobs.QueueKey)
	} else {
		store := data.NewMemoryJobStore()
		container.Store = store
		simulated, simErr := service.NewSimulatedLifecycle(service.SimulatedLifecycleOptions{
			Store:        store,
			RunningDelay: cfg.Jobs.RunningDelay,
			SucceedDelay: cfg.Jobs.SucceedDelay,
			ResultURL:    cfg.Jobs.MockResultURL,
			Logger:       logger,
			Metrics:      sink,
		})
		if simErr != nil {
			return ServiceContainer{}, fmt.Errorf("build simulated lifecycle: %w", simErr)
		}
		lifecycle = simulated
		logger.Info("job store configured", "backend", "memory")
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Store:     container.Store,
		Lifecycle: lifecycle,
		IDs:       newIDGenerator(cfg.Jobs.IDStrategy),
		Logger:    logger,
		Metrics:   sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job service: %w", err)
	}
	container.Jobs = jobs

	return container, nil
}

//nolint:ireturn // strategy picks the generator at runtime.
func newIDGenerator(strategy config.IDStrategy) core.IDGenerator {
	if strategy == config.IDStrategyUUID {
		return service.UUIDGenerator{}
	}
	return &service.SequenceIDGenerator{}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	// Context bounds the run; cancelling it triggers a graceful shutdown. Defaults to Background.
	Context  context.Context
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	}, deps.errCh)
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newJobEventsBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeJobEvents,
		name: "job events",
		start: func(ctx context.Context) error {
			svcs := deps.cfg.Services
			if svcs.Events == nil || svcs.Store == nil {
				return errors.New("job events require a redis connection")
			}
			applier, err := service.NewJobEventApplier(service.JobEventApplierOptions{
				Store:   svcs.Store,
				Events:  svcs.Events,
				Logger:  deps.logger,
				Metrics: svcs.Observability.MetricsSink,
			})
			if err != nil {
				return err
			}
			return applier.Run(ctx)
		},
	}
}

func newJobWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeJobWorker,
		name: "job worker",
		start: func(ctx context.Context) error {
			svcs := deps.cfg.Services
			if svcs.Queue == nil || svcs.Events == nil {
				return errors.New("job worker requires a redis connection")
			}
			var workerCfg config.WorkerConfig
			var jobsCfg config.JobsConfig
			if deps.cfg.Config != nil {
				workerCfg = deps.cfg.Config.Worker
				jobsCfg = deps.cfg.Config.Jobs
			}
			runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
				Queue:         svcs.Queue,
				Events:        svcs.Events,
				Logger:        deps.logger,
				PollTimeout:   workerCfg.PollTimeout,
				WorkDuration:  workerCfg.WorkDuration,
				ErrorBackoff:  workerCfg.ErrorBackoff,
				Concurrency:   workerCfg.Concurrency,
				DryRunDefault: workerCfg.DryRun,
				ResultURL:     jobsCfg.MockResultURL,
				Metrics:       svcs.Observability.MetricsSink,
			})
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newJobEventsBackgroundService(deps),
		newJobWorkerBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received, the context ends, or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	serviceCtx, cancel := context.WithCancel(parent)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		parent:      parent,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		httpTimeout: cfg.Config.HTTP.ShutdownTimeout,
		jobService:  cfg.Services.Jobs,
		metrics:     cfg.Services.Observability.MetricsClient,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// errorChannelCapacity counts the enabled services that may report a failure.
func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	parent      context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	httpTimeout time.Duration
	jobService  *service.JobService
	metrics     *statsd.Client
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case <-cfg.parent.Done():
		cfg.logger.Info("shutting down services...", "reason", cfg.parent.Err())
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	var stopErr error

	if cfg.httpServer != nil {
		// The parent may already be done; give shutdown its own budget.
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context:    context.WithoutCancel(cfg.parent),
			Server:     cfg.httpServer,
			JobService: cfg.jobService,
			Timeout:    cfg.httpTimeout,
			Logger:     cfg.logger,
		}); err != nil {
			stopErr = fmt.Errorf("shutdown http server: %w", err)
		}
	} else if cfg.jobService != nil {
		cfg.jobService.Stop()
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if err := cfg.metrics.Close(); err != nil {
		cfg.logger.Warn("close statsd client", "error", err)
	}

	return stopErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
