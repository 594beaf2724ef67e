package cache

import (
	"regexp"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is used when neither the store nor the write names a TTL.
const DefaultTTL = 5 * time.Minute

// entry wraps a cached value with the metadata needed to judge its freshness.
// gen identifies the write that produced it.
type entry[V any] struct {
	value     V
	writtenAt time.Time
	ttl       time.Duration
	gen       uint64
	timer     clockwork.Timer
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.writtenAt) >= e.ttl
}

func (e *entry[V]) stop() {
	if e.timer != nil {
		e.timer.Stop()
	}
}

// EntryStatus describes one live entry for introspection.
type EntryStatus[V any] struct {
	Remaining time.Duration `json:"remaining_ttl"`
	Value     V             `json:"value"`
}

// Store is a keyed TTL cache.
type Store[V any] struct {
	mu         sync.Mutex
	items      map[string]*entry[V]
	defaultTTL time.Duration
	clock      clockwork.Clock
	writes     uint64
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl   time.Duration
	clock clockwork.Clock
}

// WithDefaultTTL sets the TTL used by [Store.Set]. Non-positive values are ignored.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock sets the clock used for ages and expiry timers.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// New creates an empty Store.
func New[V any](opts ...Option) *Store[V] {
	o := options{ttl: DefaultTTL, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		items:      make(map[string]*entry[V]),
		defaultTTL: o.ttl,
		clock:      o.clock,
	}
}

// DefaultTTL returns the TTL applied by [Store.Set].
func (s *Store[V]) DefaultTTL() time.Duration { return s.defaultTTL }

// Get returns the value stored under key if it is still fresh.
// An expired entry is removed as a side effect.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(s.clock.Now()) {
		e.stop()
		delete(s.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the store's default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetTTL(key, value, 0)
}

// SetTTL stores value under key for ttl. A non-positive ttl means the default.
// Any previous entry for key is replaced and its expiry timer stopped.
func (s *Store[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	s.writes++
	gen := s.writes
	if old, ok := s.items[key]; ok {
		old.stop()
	}
	s.items[key] = &entry[V]{
		value:     value,
		writtenAt: s.clock.Now(),
		ttl:       ttl,
		gen:       gen,
	}
	s.mu.Unlock()

	// The timer is created outside the lock so a clock that fires callbacks
	// synchronously cannot deadlock against the store.
	timer := s.clock.AfterFunc(ttl, func() { s.expire(key, gen) })

	s.mu.Lock()
	if cur, ok := s.items[key]; ok && cur.gen == gen {
		cur.timer = timer
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	timer.Stop()
}

// expire removes key only if it still holds the write identified by gen.
func (s *Store[V]) expire(key string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.items[key]; ok && cur.gen == gen {
		delete(s.items, key)
	}
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		e.stop()
		delete(s.items, key)
	}
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		e.stop()
	}
	s.items = make(map[string]*entry[V])
}

// DeleteByPattern removes every key matching re and returns how many were removed.
// A nil pattern matches nothing.
func (s *Store[V]) DeleteByPattern(re *regexp.Regexp) int {
	if re == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.items {
		if re.MatchString(key) {
			e.stop()
			delete(s.items, key)
			n++
		}
	}
	return n
}

// Size returns the number of live entries.
func (s *Store[V]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.clock.Now())
	return len(s.items)
}

// Status returns every live entry with its remaining TTL.
func (s *Store[V]) Status() map[string]EntryStatus[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweepLocked(now)
	out := make(map[string]EntryStatus[V], len(s.items))
	for key, e := range s.items {
		out[key] = EntryStatus[V]{
			Remaining: e.ttl - now.Sub(e.writtenAt),
			Value:     e.value,
		}
	}
	return out
}

func (s *Store[V]) sweepLocked(now time.Time) {
	for key, e := range s.items {
		if e.expired(now) {
			e.stop()
			delete(s.items, key)
		}
	}
}
