package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"venturelens/internal/events"
)

// startMaintenanceLoops runs the transition stream trim on an interval.
// Disabled when no stream is configured or the interval is zero; XAdd's
// approximate trim still bounds growth in that case.
func startMaintenanceLoops(
	ctx context.Context,
	log *zap.SugaredLogger,
	publisher *events.RedisPublisher,
	trimInterval time.Duration,
) {
	if publisher == nil || trimInterval <= 0 {
		return
	}
	go runStreamTrimLoop(ctx, log, publisher, trimInterval)
}

func runStreamTrimLoop(
	ctx context.Context,
	log *zap.SugaredLogger,
	publisher *events.RedisPublisher,
	interval time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trimCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			trimmed, err := publisher.Trim(trimCtx)
			cancel()
			if err != nil {
				log.Warnw("transition stream trim failed", "error", err)
				continue
			}
			if trimmed > 0 {
				log.Infow("transition stream trimmed", "entries", trimmed)
			}
		}
	}
}
