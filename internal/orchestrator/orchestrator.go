package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"venturelens/internal/assets"
	"venturelens/internal/genai"
	"venturelens/internal/posts"
	"venturelens/internal/store"
)

// ErrBusy is returned by leading-wins flows when a run is already in
// flight; the new intent is dropped, not queued.
var ErrBusy = errors.New("a generation run is already in flight")

// Config carries the timing knobs. Tests shrink these to milliseconds.
type Config struct {
	StageDelay        time.Duration
	VideoPollInterval time.Duration
	VideoPollTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.StageDelay <= 0 {
		c.StageDelay = 1500 * time.Millisecond
	}
	if c.VideoPollInterval <= 0 {
		c.VideoPollInterval = 10 * time.Second
	}
	if c.VideoPollTimeout <= 0 {
		c.VideoPollTimeout = 15 * time.Minute
	}
	return c
}

// Orchestrators owns every workflow goroutine. Each workflow listens
// for start intents (method calls), performs the external calls and
// emits store transitions; concurrency discipline is latest-wins per
// report domain and leading-wins for the blueprint flow.
type Orchestrators struct {
	store  *store.Store
	ai     genai.Client
	outage *OutageMonitor
	assets assets.Store
	signer *assets.TokenSigner
	posts  posts.Repository
	log    *zap.SugaredLogger
	cfg    Config

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reportRunners map[store.Domain]*runner
	regenRunner   runner
	visionsRunner runner
	compareRunner runner
	qnaRunner     runner

	blueprintMu   sync.Mutex
	blueprintBusy bool
}

func New(
	st *store.Store,
	ai genai.Client,
	outage *OutageMonitor,
	assetStore assets.Store,
	signer *assets.TokenSigner,
	postRepo posts.Repository,
	log *zap.SugaredLogger,
	cfg Config,
) *Orchestrators {
	base, cancel := context.WithCancel(context.Background())

	reportRunners := make(map[store.Domain]*runner, len(store.ReportDomains))
	for _, domain := range store.ReportDomains {
		reportRunners[domain] = &runner{}
	}

	return &Orchestrators{
		store:         st,
		ai:            ai,
		outage:        outage,
		assets:        assetStore,
		signer:        signer,
		posts:         postRepo,
		log:           log,
		cfg:           cfg.withDefaults(),
		base:          base,
		cancel:        cancel,
		reportRunners: reportRunners,
	}
}

// Shutdown cancels every in-flight workflow, including video poll
// loops, and waits for them to finish.
func (o *Orchestrators) Shutdown(ctx context.Context) error {
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runner implements latest-wins supersession: beginning a new run
// cancels the previous one and bumps the epoch, and deliver refuses
// transitions from any run that is no longer current. A superseded
// run's late result is therefore discarded by mechanism, it can never
// reach the store.
type runner struct {
	mu     sync.Mutex
	epoch  uint64
	cancel context.CancelFunc
}

func (r *runner) begin(parent context.Context) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.epoch++
	return ctx, r.epoch
}

// deliver applies fn only if epoch is still current. Serialized with
// begin so a supersede and a stale delivery cannot interleave.
func (r *runner) deliver(epoch uint64, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epoch != epoch {
		return false
	}
	fn()
	return true
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
