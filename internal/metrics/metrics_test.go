package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordBuild(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("success"))

	RecordBuild("success", 0.25)

	assert.Equal(t, before+1, testutil.ToFloat64(BuildsTotal.WithLabelValues("success")))
}

func TestRecordTicket(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name string
		size int
	}{
		{name: "three leg", size: 3},
		{name: "six leg", size: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := TicketsBuiltTotal.WithLabelValues(strconv.Itoa(tt.size))
			before := testutil.ToFloat64(c)
			RecordTicket(tt.size)
			assert.Equal(t, before+1, testutil.ToFloat64(c))
		})
	}
}

func TestUpdateLastBuild(t *testing.T) {
	InitRegistry()

	UpdateLastBuild(8, 12.5)

	assert.Equal(t, 8.0, testutil.ToFloat64(LastBuildTicketCount))
	assert.Equal(t, 12.5, testutil.ToFloat64(LastBuildTotalEV))
}

func TestRecordOddsFetch(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordOddsFetch("api")
		RecordOddsFetch("cache")
	})
}

func TestRecordCircuitBreakerTrip(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CircuitBreakerTripsTotal)

	RecordCircuitBreakerTrip()

	assert.Equal(t, before+1, testutil.ToFloat64(CircuitBreakerTripsTotal))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordOddsFetch("api")

	handler := Handler()
	require.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ev_parlay_odds_fetch_total")
}

func BenchmarkRecordTicket(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordTicket(4)
	}
}
