package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewRouter(Deps{StartTime: time.Now().Add(-time.Minute), Gatherer: prometheus.NewRegistry()})
	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.GreaterOrEqual(t, body.UptimeSeconds, 60.0)
}

func TestReadyz(t *testing.T) {
	ok := Check{Name: "db", Ping: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	rec := get(t, NewRouter(Deps{Checks: []Check{ok}, Gatherer: prometheus.NewRegistry()}), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, NewRouter(Deps{Checks: []Check{ok, down}, Gatherer: prometheus.NewRegistry()}), "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body readyzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Ready)
	require.Equal(t, map[string]string{"db": "ok", "redis": "fail"}, body.Checks)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(c)
	c.Inc()

	rec := get(t, NewRouter(Deps{Gatherer: reg}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "probe_total 1"))
}

func TestServerStartStop(t *testing.T) {
	s := New("127.0.0.1:0", Deps{Gatherer: prometheus.NewRegistry()})
	require.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
