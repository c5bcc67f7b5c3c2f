// Package main runs the product catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/productcatalog/internal/config"
	"github.com/abgdnv/productcatalog/internal/product/app"
	"github.com/abgdnv/productcatalog/internal/product/store"
	"github.com/abgdnv/productcatalog/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/config/configloader"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	natsclient "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/server"
	"github.com/abgdnv/productcatalog/pkg/telemetry"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	serviceName   = "product"
	telemetryName = "product-service"
	pingTimeout   = 2 * time.Second
	httpOperation = "product-http"
	providerFlush = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens the store and serves HTTP, gRPC and pprof until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	var routerOpts []server.RouterOption
	if cfg.Telemetry.Traces.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, telemetryName, cfg.Telemetry)
		if err != nil {
			return err
		}
		defer shutdownProvider(logger, "tracer", tp.Shutdown)
		routerOpts = append(routerOpts, server.WithTracing(httpOperation))
	}
	routerOpts = append(routerOpts, server.WithCORS(cfg.CORS.AllowedOrigins...))

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		mp, handler, err := telemetry.NewMeterProvider(telemetryName)
		if err != nil {
			return err
		}
		defer shutdownProvider(logger, "meter", mp.Shutdown)
		metricsHandler = handler
	}

	productStore, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher, err := newPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps := app.SetupDependencies(productStore, publisher, logger)
	deps.Metrics = metricsHandler
	httpServer := app.SetupHttpServer(cfg, app.SetupHttpHandler(deps, routerOpts...))
	healthServer := health.NewServer()
	grpcServer := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled, healthServer)
	pprofServer := &http.Server{
		Addr:              cfg.PProf.Addr,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	if err := deps.ProductService.Ping(pingCtx); err != nil {
		cancel()
		return fmt.Errorf("store is not reachable: %w", err)
	}
	cancel()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the gRPC server
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down gRPC server...")
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// openStore opens the configured product store and returns a function releasing it.
func openStore(ctx context.Context, cfg pkgconfig.DatabaseConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	switch cfg.Driver {
	case pkgconfig.DriverPostgres:
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		if err := bootstrap.MigrateUp(store.Migrations, store.MigrationsDir, cfg.URL); err != nil {
			dbPool.Close()
			return nil, nil, err
		}
		logger.Info("Successfully connected to the database!", slog.String("driver", cfg.Driver))
		return store.NewPgStore(dbPool), dbPool.Close, nil
	default:
		openCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		sqliteStore, err := store.OpenSQLite(openCtx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Opened sqlite database", slog.String("dsn", pkgconfig.MaskURL(cfg.URL)))
		return sqliteStore, func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Error("failed to close sqlite database", "error", err)
			}
		}, nil
	}
}

// newPublisher connects to JetStream when NATS is enabled and falls back to a publisher that drops events.
func newPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("NATS is disabled, product events are not published")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := natsclient.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := natsclient.EnsureStream(streamCtx, js, cfg.Stream, messaging.ProductsCreatedSubject); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.Url), slog.String("stream", cfg.Stream))
	return natsclient.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", "error", err)
		}
	}, nil
}

func shutdownProvider(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), providerFlush)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shut down telemetry provider", "provider", name, "error", err)
	}
}
