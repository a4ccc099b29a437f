package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "tableorders/docs"
	"tableorders/pkg/api"
	"tableorders/pkg/config"
	"tableorders/pkg/events"
	"tableorders/pkg/events/rabbitmq"
	"tableorders/pkg/events/redis"
	"tableorders/pkg/logger"
	"tableorders/pkg/order/memory"
	"tableorders/pkg/otel"
)

const serviceName = "tableorders"

// @title Restaurant Orders API
// @version 1.0
// @description API for managing restaurant table orders
// @host localhost:8080
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	bootLog := logger.New(os.Stdout, logger.LevelInfo, serviceName, nil)
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.Error(context.Background(), "load config", "error", err)
		return err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		bootLog.Error(context.Background(), "log level", "error", err)
		return err
	}
	log := logger.New(os.Stdout, level, serviceName, otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.Tracing.Host,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		log.Error(ctx, "init tracing", "error", err)
		return err
	}
	defer shutdownTracing(context.Background())

	pub, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		log.Error(ctx, "connect events backend", "backend", cfg.Events.Backend, "error", err)
		return err
	}
	defer pub.Close()

	h := api.New(memory.New(), log, pub, tp.Tracer(serviceName))
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", cfg.HTTP.Addr, "tls", cfg.HTTP.TLS(), "events", cfg.Events.Backend)
		var err error
		if cfg.HTTP.TLS() {
			err = srv.ListenAndServeTLS(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "server closed", "error", err)
		return err
	}
	return nil
}

func newPublisher(ctx context.Context, cfg config.Events) (events.Publisher, error) {
	switch cfg.Backend {
	case "redis":
		return redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Channel)
	case "rabbitmq":
		return rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	default:
		return events.Nop{}, nil
	}
}
