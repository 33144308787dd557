// Package observability lets the solver report events without depending on
// a metrics backend.
//
// Instrumented code calls the accessor for its event category:
//
//	observability.Solve().OnSolveStart(ctx, numSources, maxIterations)
//	// ... anneal ...
//	observability.Solve().OnSolveComplete(ctx, initialCost, finalCost, elapsed, err)
//
// Until something is registered every accessor returns a no-op. The server
// installs the Prometheus implementation from the prom subpackage:
//
//	m := prom.New()
//	if err := m.Install(prometheus.DefaultRegisterer); err != nil { ... }
package observability

import (
	"context"
	"sync"
	"time"
)

// SolveHooks receives events from annealing runs.
type SolveHooks interface {
	OnSolveStart(ctx context.Context, numSources, maxIterations int)
	// OnIteration is called once per annealing iteration with the
	// temperature it ran at and the current cost afterwards.
	OnIteration(ctx context.Context, accepted bool, temperature, cost float64, vertices int)
	OnSolveComplete(ctx context.Context, initialCost, finalCost float64, duration time.Duration, err error)
}

// CacheHooks receives events from the solve result cache. keyType names the
// kind of entry, currently always "solve".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives one event per request served by the HTTP API. route
// is the matched pattern, e.g. "/v1/runs/{id}", never the raw path.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

type NoopSolveHooks struct{}

func (NoopSolveHooks) OnSolveStart(context.Context, int, int)                                  {}
func (NoopSolveHooks) OnIteration(context.Context, bool, float64, float64, int)                {}
func (NoopSolveHooks) OnSolveComplete(context.Context, float64, float64, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// slot holds the current implementation of one hook interface.
type slot[T any] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func newSlot[T any](noop T) *slot[T] { return &slot[T]{cur: noop, noop: noop} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	solveSlot = newSlot[SolveHooks](NoopSolveHooks{})
	cacheSlot = newSlot[CacheHooks](NoopCacheHooks{})
	httpSlot  = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetSolveHooks installs h. A nil h is ignored.
func SetSolveHooks(h SolveHooks) { solveSlot.set(h) }

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { httpSlot.set(h) }

// Register installs h for every hook interface it implements and reports
// how many it matched.
func Register(h any) int {
	n := 0
	if s, ok := h.(SolveHooks); ok {
		SetSolveHooks(s)
		n++
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
		n++
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
		n++
	}
	return n
}

func Solve() SolveHooks { return solveSlot.get() }

func Cache() CacheHooks { return cacheSlot.get() }

func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores the no-op hooks. Tests that install hooks defer it.
func Reset() {
	solveSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
