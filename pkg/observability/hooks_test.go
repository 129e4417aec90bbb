package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSearchHooks{}
	s.OnRunStart(ctx, "tabu", 10)
	s.OnIteration(ctx, "tabu", 100)
	s.OnImprovement(ctx, "tabu", 90, time.Second)
	s.OnRunComplete(ctx, "tabu", 90, time.Second, nil)

	st := NoopStoreHooks{}
	st.OnHit(ctx, "file")
	st.OnMiss(ctx, "file")
	st.OnPut(ctx, "file", true)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Search() should return NoopSearchHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	custom := &testSearchHooks{}
	SetSearchHooks(custom)
	if Search() != custom {
		t.Error("SetSearchHooks should set custom hooks")
	}

	SetSearchHooks(nil)
	if Search() != custom {
		t.Error("SetSearchHooks(nil) should keep the previous hooks")
	}

	Reset()
	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Reset() should restore NoopSearchHooks")
	}
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnRunStart(ctx, "climb", 8)
	p.OnIteration(ctx, "climb", 500)
	p.OnIteration(ctx, "climb", 450)
	p.OnImprovement(ctx, "climb", 450, time.Millisecond)
	p.OnRunComplete(ctx, "climb", 450, time.Millisecond, nil)
	p.OnRunStart(ctx, "climb", 8)
	p.OnRunComplete(ctx, "climb", 0, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.runs.WithLabelValues("climb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.runErrors.WithLabelValues("climb")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.iterations.WithLabelValues("climb")))
	assert.Equal(t, 450.0, testutil.ToFloat64(p.bestScore.WithLabelValues("climb")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.active.WithLabelValues("climb")))

	p.OnHit(ctx, "redis")
	p.OnMiss(ctx, "redis")
	p.OnMiss(ctx, "redis")
	p.OnPut(ctx, "redis", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.storeLookups.WithLabelValues("redis", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.storeLookups.WithLabelValues("redis", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.storePuts.WithLabelValues("redis", "false")))
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	p.OnRunStart(context.Background(), "ils", 4)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bnsearch_runs_total{method="ils"} 1`))
}

type testSearchHooks struct{ NoopSearchHooks }
