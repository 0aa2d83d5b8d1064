package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iliyamo/michels-travel/internal/bootstrap"
	"github.com/iliyamo/michels-travel/internal/config"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/notify"
	"github.com/iliyamo/michels-travel/internal/queue"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "michels-travel-worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer app.Close()

	var wg sync.WaitGroup

	if consumer := queue.NewConsumer(cfg.Events, log); consumer != nil {
		notifier := notify.NewNotifier(notify.NewLogSender(log), log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()
			if err := consumer.Run(ctx, notifier.Handle); err != nil && ctx.Err() == nil {
				log.Error("consumer stopped", "error", err)
			}
		}()
	} else {
		log.Info("events disabled; notifications will not be sent")
	}

	every(ctx, &wg, log, "expire bookings", cfg.Worker.ExpireInterval, func(ctx context.Context) (int, error) {
		return app.Bookings.ExpireStale(ctx)
	})
	every(ctx, &wg, log, "poll payments", cfg.Worker.PaymentPollInterval, func(ctx context.Context) (int, error) {
		return app.Bookings.PollPending(ctx)
	})
	every(ctx, &wg, log, "sweep price alerts", cfg.Worker.AlertSweepInterval, func(ctx context.Context) (int, error) {
		res, err := app.Alerts.Sweep(ctx)
		return res.Triggered, err
	})

	log.Info("worker started",
		"expire_every", cfg.Worker.ExpireInterval,
		"poll_every", cfg.Worker.PaymentPollInterval,
		"sweep_every", cfg.Worker.AlertSweepInterval)
	<-ctx.Done()
	log.Info("shutting down")
	wg.Wait()
}

// every runs job on a ticker until ctx is cancelled. A non-positive interval
// disables the job.
func every(ctx context.Context, wg *sync.WaitGroup, log *logger.Logger, name string, interval time.Duration, job func(context.Context) (int, error)) {
	log = log.With("job", name)
	if interval <= 0 {
		log.Info("job disabled")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				runCtx, cancel := context.WithTimeout(ctx, interval)
				n, err := job(runCtx)
				cancel()
				if err != nil {
					log.Error("job failed", "error", err)
					continue
				}
				if n > 0 {
					log.Info("job done", "count", n)
				}
			}
		}
	}()
}
