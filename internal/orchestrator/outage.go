package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"venturelens/internal/genai"
	"venturelens/internal/store"
)

// OutageMonitor owns the availability flag's lifecycle. Tripping it
// flips availability off immediately; a background probe loop then
// checks the external service on an interval and restores availability
// on the first healthy response.
type OutageMonitor struct {
	store    *store.Store
	ai       genai.Client
	log      *zap.SugaredLogger
	interval time.Duration
	notifier *OutageNotifier

	trips chan string
}

func NewOutageMonitor(
	st *store.Store,
	ai genai.Client,
	log *zap.SugaredLogger,
	interval time.Duration,
	notifier *OutageNotifier,
) *OutageMonitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &OutageMonitor{
		store:    st,
		ai:       ai,
		log:      log,
		interval: interval,
		notifier: notifier,
		trips:    make(chan string, 1),
	}
}

// Trip records an outage. Idempotent while already tripped: the flag
// stays false and the probe loop is woken at most once.
func (m *OutageMonitor) Trip(message string) {
	m.store.SetAPIOutage(message)
	select {
	case m.trips <- message:
	default:
	}
}

// Run blocks until ctx is done, alternating between waiting for a trip
// and probing until the service recovers.
func (m *OutageMonitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-m.trips:
			m.log.Warnw("external service outage detected", "reason", message)
			if m.notifier.enabled() {
				if _, err := m.notifier.Notify(ctx, "service_outage", message); err != nil {
					m.log.Warnw("outage webhook delivery failed", "error", err)
				}
			}
			m.probeUntilHealthy(ctx)
		}
	}
}

func (m *OutageMonitor) probeUntilHealthy(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.probe(ctx) {
				continue
			}
			m.store.ResetAPIStatus()
			m.log.Infow("external service recovered")
			if m.notifier.enabled() {
				if _, err := m.notifier.Notify(ctx, "service_recovered", "health probe succeeded"); err != nil {
					m.log.Warnw("recovery webhook delivery failed", "error", err)
				}
			}
			// Drain a trip that raced in while probing so the loop does
			// not immediately re-enter probing on stale news.
			select {
			case <-m.trips:
				if !m.store.Available() {
					continue
				}
			default:
			}
			return
		}
	}
}

// probe is panic-safe: a misbehaving client must not take down the
// monitor loop.
func (m *OutageMonitor) probe(ctx context.Context) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("health probe panicked", "panic", r)
			healthy = false
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return m.ai.HealthCheck(probeCtx)
}
