package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sinkCheckInterval = 30 * time.Second

// Serve runs the collector described by cfg until ctx is cancelled.
func Serve(ctx context.Context, cfg *ServiceConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	sink, err := cfg.OpenSink(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	if cfg.Secret == "" {
		log.Warn("ingest_secret_unset", zap.String("effect", "every append is rejected"))
	}

	srv := NewServer(cfg.Secret, sink,
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithServerLogger(log))
	httpSrv := srv.HTTPServer(cfg.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ListenAndServe(gctx, httpSrv)
	})
	if p, ok := sink.(Pinger); ok {
		g.Go(func() error {
			watchSink(gctx, p, log, sinkCheckInterval)
			return nil
		})
	}

	log.Info("ingest_listening",
		zap.String("addr", cfg.Addr()),
		zap.String("csv", cfg.CSVPath),
		zap.Bool("postgres", cfg.DatabaseURL != ""))
	return g.Wait()
}

// watchSink logs when the sink stops answering pings.
func watchSink(ctx context.Context, p Pinger, log *zap.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := p.Ping(pingCtx)
			cancel()
			switch {
			case err != nil && healthy:
				log.Error("sink_unhealthy", zap.Error(err))
				healthy = false
			case err == nil && !healthy:
				log.Info("sink_recovered")
				healthy = true
			}
		}
	}
}
