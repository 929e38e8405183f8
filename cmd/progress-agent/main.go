package main

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/learning-platform/internal/agent/config"
	"github.com/example/learning-platform/internal/agent/handlers"
	"github.com/example/learning-platform/internal/delivery"
	"github.com/example/learning-platform/internal/netmon"
	"github.com/example/learning-platform/internal/platform/httpserver"
	"github.com/example/learning-platform/internal/platform/logging"
	"github.com/example/learning-platform/internal/platform/run"
	"github.com/example/learning-platform/internal/progress"
	"github.com/example/learning-platform/internal/snapshot"
	"github.com/example/learning-platform/internal/syncer"
	"github.com/example/learning-platform/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.LogLevel, "progress-agent")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	slot, err := snapshot.NewSlot(cfg.RedisDSN, cfg.DatabaseURL, cfg.StatePath, cfg.OwnerID, cfg.IsProd())
	if err != nil {
		log.Error("snapshot slot init", zap.Error(err))
		run.Exit(1)
	}

	var sink delivery.Sink
	probeAddr := ""
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second))
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		sink, err = delivery.NewJetStreamSink(nc, cfg.NATSSubject)
		if err != nil {
			log.Error("jetstream init", zap.Error(err))
			run.Exit(1)
		}
	} else {
		sink = delivery.NewHTTPSink(cfg.ActivityURL)
		probeAddr = netmon.ProbeAddr(cfg.ActivityURL)
	}

	var tokens token.Source
	switch {
	case cfg.AuthURL != "":
		tokens = token.NewClient(cfg.AuthURL, cfg.RefreshToken)
	case cfg.StaticToken != "":
		tokens = token.Static(cfg.StaticToken)
	}

	mon := netmon.New(probeAddr, cfg.ProbeInterval, cfg.ProbeTimeout, log)

	store := progress.NewStore(cfg.Threshold)
	svc := syncer.New(syncer.Config{
		FlushInterval:   cfg.FlushInterval,
		BatchThreshold:  cfg.BatchThreshold,
		MaxAttempts:     cfg.MaxAttempts,
		DeliveryTimeout: cfg.DeliveryTimeout,
	}, store, slot, sink, tokens, mon, log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	handlers.Register(r, svc, cfg.JWTSecret)
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTPAddr, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		mon.Start()
		svc.Start(ctx)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(log) }()

		select {
		case err := <-errCh:
			svc.Stop()
			mon.Stop()
			return err
		case <-ctx.Done():
		}

		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		svc.Stop()
		mon.Stop()
		log.Info("progress agent stopped")
		return nil
	})
	run.Exit(code)
}
