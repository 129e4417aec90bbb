// Package observability provides hooks for metrics and progress reporting.
//
// Search drivers and result stores emit events through small hook
// interfaces. The defaults do nothing, so the core packages never depend on a
// particular metrics backend. The command line registers a Prometheus
// implementation (see [NewPrometheus]) when metrics are requested.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus(prometheus.NewRegistry())
//	    observability.SetSearchHooks(m)
//	    observability.SetStoreHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnRunStart(ctx, "tabu", n)
//	// ... search ...
//	observability.Search().OnRunComplete(ctx, "tabu", best, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the search drivers.
//
// Scores are passed as raw fixed-point integers (lower is better).
type SearchHooks interface {
	// OnRunStart fires when a driver starts on an instance of n variables.
	OnRunStart(ctx context.Context, method string, n int)

	// OnIteration fires once per completed driver iteration with the score
	// of the current solution.
	OnIteration(ctx context.Context, method string, current int64)

	// OnImprovement fires when a driver finds a new best score.
	OnImprovement(ctx context.Context, method string, best int64, elapsed time.Duration)

	// OnRunComplete fires when a driver returns.
	OnRunComplete(ctx context.Context, method string, best int64, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from result store operations.
type StoreHooks interface {
	// OnHit records a lookup that found a stored result.
	OnHit(ctx context.Context, backend string)

	// OnMiss records a lookup that found nothing.
	OnMiss(ctx context.Context, backend string)

	// OnPut records a write. Replaced reports whether the stored result
	// was actually overwritten.
	OnPut(ctx context.Context, backend string, replaced bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnRunStart(context.Context, string, int)                            {}
func (NoopSearchHooks) OnIteration(context.Context, string, int64)                         {}
func (NoopSearchHooks) OnImprovement(context.Context, string, int64, time.Duration)        {}
func (NoopSearchHooks) OnRunComplete(context.Context, string, int64, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnHit(context.Context, string)       {}
func (NoopStoreHooks) OnMiss(context.Context, string)      {}
func (NoopStoreHooks) OnPut(context.Context, string, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks SearchHooks = NoopSearchHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any search runs.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	storeHooks = NoopStoreHooks{}
}
