// Package probe periodically exercises care service endpoints through the
// resilient client, so the monitor's health signal reflects live traffic
// even when nobody is using the service.
package probe

import (
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/careflow/pkg/client"
	"github.com/matzehuels/careflow/pkg/monitor"
	"github.com/matzehuels/careflow/pkg/retry"
)

// Doer performs one status-aware call. *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req client.Request) (*client.Response, error)
}

// Result is the outcome of probing one endpoint.
type Result struct {
	Endpoint string        `json:"endpoint"`
	Status   int           `json:"status"` // 0 when no response was received
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// OK reports whether the endpoint answered with a 2xx status.
func (r Result) OK() bool { return r.Err == nil && retry.IsSuccess(r.Status) }

// Config configures a [Prober].
type Config struct {
	Endpoints   []string
	Interval    time.Duration
	Concurrency int // at most this many probes in flight; default 4

	// OnTick runs after each scheduled round with its results.
	OnTick func(ctx context.Context, results []Result)

	Monitor *monitor.Monitor // recovers panics in the loop when set
	Clock   clockwork.Clock
	Logger  *log.Logger
}

// Prober runs probe rounds on demand or on an interval.
type Prober struct {
	client      Doer
	endpoints   []string
	interval    time.Duration
	concurrency int
	onTick      func(context.Context, []Result)
	monitor     *monitor.Monitor
	clock       clockwork.Clock
	logger      *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a Prober that calls c.
func New(c Doer, cfg Config) *Prober {
	p := &Prober{
		client:      c,
		endpoints:   cfg.Endpoints,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		onTick:      cfg.OnTick,
		monitor:     cfg.Monitor,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
	if p.interval <= 0 {
		p.interval = 30 * time.Second
	}
	if p.concurrency < 1 {
		p.concurrency = 4
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Endpoints returns the probed paths.
func (p *Prober) Endpoints() []string { return p.endpoints }

// RunOnce probes every endpoint and returns results in endpoint order.
func (p *Prober) RunOnce(ctx context.Context) []Result {
	results := make([]Result, len(p.endpoints))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ep := range p.endpoints {
		g.Go(func() error {
			defer p.recoverProbe(ep, &results[i])
			results[i] = p.probe(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// recoverProbe turns a panic in one probe into a failed result.
func (p *Prober) recoverProbe(endpoint string, r *Result) {
	v := recover()
	if v == nil {
		return
	}
	err := &monitor.PanicError{Value: v, Stack: debug.Stack()}
	if p.monitor != nil {
		p.monitor.RecordError(monitor.TypeUncaughtError, err)
	}
	p.logger.Error("probe panicked", "endpoint", endpoint, "err", err)
	*r = Result{Endpoint: endpoint, Err: err}
}

func (p *Prober) probe(ctx context.Context, endpoint string) Result {
	start := p.clock.Now()
	resp, err := p.client.Do(ctx, client.Request{Method: http.MethodGet, Path: endpoint})
	r := Result{Endpoint: endpoint, Duration: p.clock.Since(start), Err: err}
	if err == nil {
		r.Status = resp.StatusCode()
		r.Err = resp.Err()
	}

	if r.Err != nil {
		p.logger.Warn("probe failed", "endpoint", endpoint, "status", r.Status, "err", r.Err)
	} else {
		p.logger.Debug("probe ok", "endpoint", endpoint, "status", r.Status, "duration", r.Duration)
	}
	return r
}

// Start runs a round immediately and then every interval until ctx is done
// or Stop is called. Calling Start on a running Prober does nothing.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.monitor != nil {
			defer p.monitor.Recover()
		}

		ticker := p.clock.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick(ctx)
		for {
			select {
			case <-ticker.Chan():
				p.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Prober) tick(ctx context.Context) {
	results := p.RunOnce(ctx)
	if ctx.Err() != nil {
		return
	}
	if p.onTick != nil {
		p.onTick(ctx, results)
	}
}

// Stop ends the loop started by Start and waits for the current round.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.running = false
}

// Running reports whether the loop is active.
func (p *Prober) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
