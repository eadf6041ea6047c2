package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	ok := Handler(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := Handler(func(context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}

func TestEngineCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngine(reg)

	m.ObserveOperation("stake", "OK")
	m.ObserveOperation("stake", "OK")
	m.ObserveOperation("stake", "MARKET_CLOSED")
	m.ObserveTransferFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("stake", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("stake", "MARKET_CLOSED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransferFailures))
}

func TestIndexerCountersRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIndexer(reg)
	m.Errors.WithLabelValues("decode").Inc()

	n, err := testutil.GatherAndCount(reg, "indexer_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
