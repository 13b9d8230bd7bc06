package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const retryInterval = 500 * time.Millisecond

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	abandoned := false
	defer func() {
		if abandoned {
			logger.Warn("leaving storage and broker open for unfinished order submissions")
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close", zap.Error(err))
			}
		}
	}()

	store, seqRepo, err := openStorage(ctx, cfg, logger, &closers)
	if err != nil {
		return err
	}

	publisher, err := openPublisher(ctx, cfg, seqRepo, logger, &closers)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()

	factory := session.Factory{
		Store:     store,
		CartOpts:  []cart.Option{cart.WithTaxRate(cfg.TaxRate)},
		Submitter: checkout.SimulatedSubmitter{Delay: cfg.CheckoutDelay},
		FlowOpts: []checkout.Option{
			checkout.WithRetry(cfg.CheckoutTimeout, cfg.CheckoutMaxAttempts, retryInterval),
			checkout.WithEstimatedDelivery(cfg.EstimatedDelivery),
			checkout.WithRecorder(reg),
		},
		Publisher:   publisher,
		IDGenerator: order.NewIDGenerator(cfg.OrderIDPrefix),
	}
	sessions := session.NewRegistry(factory, cfg.SessionIdleTTL, logger.Named("session"), reg)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx, cfg.SessionSweepInterval)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		SecureCookies:    cfg.Env == "prod",
		Catalog:          catalog.Default(),
		Sessions:         sessions,
		Metrics:          reg,
		MetricsHandler:   reg.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront listening",
			zap.String("port", cfg.Port),
			zap.String("storage", cfg.StorageBackend),
			zap.String("broker", cfg.EventsBroker),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopSweep()

	// In-flight submissions finish before storage and the broker go away.
	if !waitForSubmissions(shutdownCtx, sessions.Wait) {
		logger.Warn("shutdown timed out waiting for order submissions")
		abandoned = true
	}

	logger.Info("shutdown complete")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger, closers *[]io.Closer) (storage.Store, events.SequenceRepository, error) {
	switch cfg.StorageBackend {
	case config.BackendPebble:
		s, err := storage.NewPebbleStore(cfg.PebbleDir)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, s)
		return s, events.NewMemorySequenceRepository(), nil

	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DBDSN, logger.Named("migrate")); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		database, err := db.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, closerFunc(database.Close))
		return storage.NewPostgresStore(database), events.NewSequenceRepository(database), nil

	case config.BackendRedis:
		s, err := storage.NewRedisStoreFromURL(ctx, cfg.RedisURL, "storefront:")
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, s)
		return s, events.NewMemorySequenceRepository(), nil

	default:
		logger.Warn("using in-memory storage; carts are lost on restart")
		return storage.NewMemoryStore(), events.NewMemorySequenceRepository(), nil
	}
}

func openPublisher(ctx context.Context, cfg config.Config, seqRepo events.SequenceRepository, logger *zap.Logger, closers *[]io.Closer) (*events.Publisher, error) {
	logger = logger.Named("events")

	switch cfg.EventsBroker {
	case config.BrokerRabbitMQ:
		conn, err := events.Dial(ctx, cfg.RabbitMQURL, 30*time.Second, logger)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, conn)
		p, err := events.NewRabbitPublisher(conn, seqRepo, logger)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, p)
		return p, nil

	case config.BrokerKafka:
		p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, seqRepo, logger)
		*closers = append(*closers, p)
		return p, nil

	default:
		p := events.NewLogPublisher(seqRepo, logger)
		*closers = append(*closers, p)
		return p, nil
	}
}

// waitForSubmissions reports whether wait returned before ctx was done.
func waitForSubmissions(ctx context.Context, wait func()) bool {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
