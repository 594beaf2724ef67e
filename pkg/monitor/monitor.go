package monitor

import (
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/careflow/pkg/buffer"
)

// Logger receives forwarded records. *log.Logger from charmbracelet/log
// satisfies it.
type Logger interface {
	Log(level log.Level, msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Log(log.Level, interface{}, ...interface{}) {}

// Option configures a [Monitor].
type Option func(*Monitor)

// WithLogger forwards errors and activity to l.
func WithLogger(l Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the clock used for timestamps and uptime.
func WithClock(c clockwork.Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// Monitor aggregates call outcomes, errors and user activity into a health
// signal. It is safe for concurrent use. No exported method panics: a fault
// inside the monitor is recovered and dropped.
type Monitor struct {
	cfg    Config
	logger Logger
	clock  clockwork.Clock

	mu        sync.Mutex
	startedAt time.Time

	total, success, failed int
	avgNanos               float64
	slow                   *buffer.Ring[SlowRequest]

	errTotal  int
	errByType map[string]int
	recent    *buffer.Ring[ErrorRecord]

	pageViews    map[string]int
	interactions map[string]int
	activity     *buffer.Ring[Activity]
}

// New creates a monitor. Zero fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:    cfg.withDefaults(),
		logger: nopLogger{},
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetLocked()
	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

func (m *Monitor) resetLocked() {
	m.startedAt = m.clock.Now()
	m.total, m.success, m.failed = 0, 0, 0
	m.avgNanos = 0
	m.slow = buffer.NewRing[SlowRequest](m.cfg.SlowRequestCapacity)
	m.errTotal = 0
	m.errByType = make(map[string]int)
	m.recent = buffer.NewRing[ErrorRecord](m.cfg.RecentErrorCapacity)
	m.pageViews = make(map[string]int)
	m.interactions = make(map[string]int)
	m.activity = buffer.NewRing[Activity](m.cfg.ActivityCapacity)
}

// isSuccess reports whether a recorded status counts as a successful call.
// Zero means no response was received.
func isSuccess(status int) bool {
	return status >= 100 && status < 400
}

// RecordCall records one finished network attempt.
func (m *Monitor) RecordCall(method, url string, statusCode int, d time.Duration) {
	defer swallow()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if isSuccess(statusCode) {
		m.success++
	} else {
		m.failed++
	}
	m.avgNanos += (float64(d) - m.avgNanos) / float64(m.total)

	if d > m.cfg.SlowThreshold {
		m.slow.Push(SlowRequest{
			Time:       m.clock.Now(),
			Method:     method,
			URL:        url,
			StatusCode: statusCode,
			Duration:   d,
		})
	}
}

// stackTracer is implemented by errors that carry a captured stack.
type stackTracer interface {
	StackTrace() string
}

// RecordError records err under errType and forwards it to the logger.
func (m *Monitor) RecordError(errType string, err error) {
	defer swallow()

	msg := "unknown error"
	var stack string
	if err != nil {
		msg = err.Error()
		if st, ok := err.(stackTracer); ok {
			stack = st.StackTrace()
		}
	}
	if errType == "" {
		errType = "unknown"
	}

	rec := ErrorRecord{
		ID:      uuid.New(),
		Time:    m.clock.Now(),
		Type:    errType,
		Message: msg,
		Stack:   stack,
	}

	m.mu.Lock()
	m.errTotal++
	m.errByType[errType]++
	m.recent.Push(rec)
	m.mu.Unlock()

	m.log(log.ErrorLevel, "recorded error", "type", errType, "id", rec.ID, "err", msg)
}

// TrackInteraction counts a named user interaction.
func (m *Monitor) TrackInteraction(name string, details map[string]any) {
	defer swallow()

	a := Activity{Time: m.clock.Now(), Kind: ActivityInteraction, Name: name, Details: maps.Clone(details)}

	m.mu.Lock()
	m.interactions[name]++
	m.activity.Push(a)
	m.mu.Unlock()

	m.log(log.DebugLevel, "interaction", "name", name)
}

// TrackPageView counts a view of the named page.
func (m *Monitor) TrackPageView(name string) {
	defer swallow()

	a := Activity{Time: m.clock.Now(), Kind: ActivityPageView, Name: name}

	m.mu.Lock()
	m.pageViews[name]++
	m.activity.Push(a)
	m.mu.Unlock()

	m.log(log.DebugLevel, "page view", "name", name)
}

// Health computes the current verdict from the aggregates.
func (m *Monitor) Health() (h Health) {
	defer swallow()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthLocked()
}

func (m *Monitor) healthLocked() Health {
	rate := errorRate(m.failed, m.total)
	h := Health{
		Status:     m.cfg.Health.Classify(rate, m.errTotal),
		ErrorRate:  rate,
		AvgLatency: time.Duration(m.avgNanos),
	}
	if last, ok := m.recent.Last(); ok {
		h.LastErrorMessage = last.Message
	}
	return h
}

// APIMetrics returns a copy of the call aggregates.
func (m *Monitor) APIMetrics() (a APIMetrics) {
	defer swallow()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiLocked()
}

func (m *Monitor) apiLocked() APIMetrics {
	return APIMetrics{
		TotalRequests: m.total,
		SuccessCount:  m.success,
		ErrorCount:    m.failed,
		AvgDuration:   time.Duration(m.avgNanos),
		SlowRequests:  m.slow.Items(),
	}
}

// ErrorMetrics returns a copy of the error aggregates.
func (m *Monitor) ErrorMetrics() (e ErrorMetrics) {
	defer swallow()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorsLocked()
}

func (m *Monitor) errorsLocked() ErrorMetrics {
	return ErrorMetrics{
		Total:  m.errTotal,
		ByType: maps.Clone(m.errByType),
		Recent: m.recent.Items(),
	}
}

// Dashboard returns a copy of everything the monitor holds.
func (m *Monitor) Dashboard() (d Dashboard) {
	defer swallow()

	m.mu.Lock()
	defer m.mu.Unlock()

	activity := m.activity.Items()
	for i := range activity {
		activity[i].Details = maps.Clone(activity[i].Details)
	}
	return Dashboard{
		Health:         m.healthLocked(),
		API:            m.apiLocked(),
		Errors:         m.errorsLocked(),
		PageViews:      maps.Clone(m.pageViews),
		Interactions:   maps.Clone(m.interactions),
		RecentActivity: activity,
		StartedAt:      m.startedAt,
		Uptime:         m.clock.Since(m.startedAt),
	}
}

// Reset zeroes all aggregates and restarts the uptime clock.
func (m *Monitor) Reset() {
	defer swallow()

	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()

	m.log(log.DebugLevel, "monitor reset")
}

// log forwards to the logger. A panicking logger is ignored.
func (m *Monitor) log(level log.Level, msg string, keyvals ...interface{}) {
	defer swallow()
	m.logger.Log(level, msg, keyvals...)
}

// swallow discards a panic in the calling method.
func swallow() {
	_ = recover()
}
