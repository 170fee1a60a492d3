package bookings

import (
	"context"
	"time"

	"parkwise/internal/shared/config"
	"parkwise/pkg/logger"
)

// Sweeper periodically expires bookings that were never claimed within the
// configured timeout and releases their slots.
type Sweeper struct {
	service Service
	cfg     config.BookingConfig
	logger  *logger.Logger
	done    chan struct{}
}

func NewSweeper(service Service, cfg config.BookingConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		service: service,
		cfg:     cfg,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop. It stops when Stop is called or the context
// is cancelled.
func (sw *Sweeper) Start(ctx context.Context) {
	go sw.run(ctx)
	sw.logger.Info("booking expiry sweeper started",
		"interval", sw.cfg.SweepInterval.String(),
		"expiry_duration", sw.cfg.ExpiryDuration.String(),
		"batch_size", sw.cfg.SweepBatch)
}

func (sw *Sweeper) Stop() {
	close(sw.done)
	sw.logger.Info("booking expiry sweeper stopped")
}

func (sw *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(sw.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sweepOnce(ctx)
		case <-sw.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sw *Sweeper) sweepOnce(ctx context.Context) {
	start := time.Now()
	expired, err := sw.service.Sweep(ctx)
	if err != nil {
		sw.logger.Error("booking expiry sweep failed", "error", err.Error())
		return
	}
	if expired > 0 {
		sw.logger.LogSweepCompleted(ctx, expired, time.Since(start))
	}
}
