package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ev-parlay/internal/config"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/service"
)

const testModel = `:Bills: BUF – 60.0% | Margin: 3.5
:Eagles: PHI – 60.0%
:49ers: SF - 60.0%
:Lions: DET - 60.0%
`

// oddsBackend stands in for The Odds API, serving testdata/odds.json
type oddsBackend struct {
	srv     *httptest.Server
	hits    int32
	queries chan url.Values
}

func newOddsBackend(t *testing.T, status int) *oddsBackend {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "odds.json"))
	require.NoError(t, err)
	b := &oddsBackend{queries: make(chan url.Values, 16)}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.hits, 1)
		select {
		case b.queries <- r.URL.Query():
		default:
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *oddsBackend) Hits() int32 {
	return atomic.LoadInt32(&b.hits)
}

type testEnv struct {
	srv      *Server
	odds     *oddsBackend
	cfg      *config.Config
	modelDir string
}

func newTestEnv(t *testing.T, status int) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	backend := newOddsBackend(t, status)
	cfg := config.Default()
	cfg.OddsAPI.APIKey = "test-key"
	cfg.OddsAPI.BaseURL = backend.srv.URL
	cfg.OddsAPI.CacheFile = filepath.Join(t.TempDir(), ".odds_cache.json")
	cfg.OddsAPI.MaxRetries = 0
	cfg.OddsAPI.RateLimit = 100
	cfg.OddsAPI.Burst = 10

	modelDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, exampleModelFile), []byte(testModel), 0o644))

	client := oddsapi.NewClient(cfg.OddsClientConfig(), nil)
	t.Cleanup(func() { _ = client.Close() })
	svc := service.NewParlayService(cfg, client, log)
	srv := NewServer(Config{
		ServiceName:    "ev-parlay",
		Version:        "test",
		MetricsEnabled: true,
		ModelDir:       modelDir,
		Logger:         log,
	}, svc)
	return &testEnv{srv: srv, odds: backend, cfg: cfg, modelDir: modelDir}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestEnv(t, http.StatusOK).srv
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ev-parlay", health.Service)

	rec = doJSON(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv.SetReady(true)
	rec = doJSON(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildEndpoint(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{
		ModelText:   testModel,
		Sportsbooks: []string{"DraftKings"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Singles, 4)
	require.NotEmpty(t, resp.Parlays)
	for _, ticket := range resp.Parlays {
		assert.NoError(t, ticket.Validate())
	}
	assert.Equal(t, "draftkings", resp.Singles[0].Book)
	assert.InDelta(t, 2.0, resp.Singles[0].Decimal, 1e-9)
}

func TestBuildEndpointWithBudget(t *testing.T) {
	h := newTestServer(t).Router()
	budget := 100.0
	desired := 2
	noCap := 0.0
	fullCap := 1.0

	rec := doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{
		ModelText:         testModel,
		ParlaySizes:       []int{2, 3},
		TeamExposureCap:   &fullCap,
		DesiredNumTickets: &desired,
		Budget:            &budget,
		StakeMethod:       "equal",
		MaxStakePct:       &noCap,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Parlays, 2)
	assert.InDelta(t, 100, resp.Parlays[0].KellyStake+resp.Parlays[1].KellyStake, 1e-9)
}

func TestBuildEndpointMissingTeams(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{
		ModelText: testModel + ":Dolphins: MIA – 70.0%\n",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"MIA"}, resp.Missing)
	assert.NotEmpty(t, resp.Hint)
}

func TestBuildEndpointRejectsBadRequests(t *testing.T) {
	h := newTestServer(t).Router()
	badCap := 1.5
	negativeWeek := -2

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "no model", body: BuildRequest{}},
		{name: "unknown stake method", body: BuildRequest{ModelText: testModel, StakeMethod: "martingale"}},
		{name: "exposure cap out of range", body: BuildRequest{ModelText: testModel, TeamExposureCap: &badCap}},
		{name: "bad commence bound", body: BuildRequest{ModelText: testModel, FromISO: "next sunday"}},
		{name: "negative week", body: BuildRequest{ModelText: testModel, Week: &negativeWeek}},
		{name: "absolute model path", body: BuildRequest{ModelPath: "/etc/passwd"}},
		{name: "model path escapes directory", body: BuildRequest{ModelPath: "../../etc/passwd"}},
		{name: "missing model file", body: BuildRequest{ModelPath: "nope.txt"}},
		{name: "not json", body: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/build", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Error, "passwd")
			assert.NotContains(t, resp.Error, "no such file")
		})
	}
}

func TestSimulateEndpoint(t *testing.T) {
	h := newTestServer(t).Router()
	seed := int64(3)
	body := SimulateRequest{
		Parlays: []models.Ticket{{Size: 2, CombinedDecimal: 4, CombinedProbability: 0.36, ExpectedValue: 0.44, FlatStake: 10}},
		Trials:  1000,
		Seed:    &seed,
	}

	rec := doJSON(t, h, http.MethodPost, "/api/simulate", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1000, resp.Stats.Trials)
	assert.InDelta(t, 4.4, resp.Stats.ExpectedProfit, 1e-9)

	body.Trials = -5
	rec = doJSON(t, h, http.MethodPost, "/api/simulate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ev_parlay_")
}

func TestBuildEndpointIgnoresOddsFile(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	body := map[string]interface{}{
		"model_text": testModel,
		"odds_file":  "/etc/passwd",
	}

	rec := doJSON(t, env.srv.Router(), http.MethodPost, "/api/build", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), env.odds.Hits(), "odds come from the odds API, never a client path")
}

func TestBuildEndpointModelPath(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	rec := doJSON(t, env.srv.Router(), http.MethodPost, "/api/build", BuildRequest{ModelPath: exampleModelFile})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Singles, 4)
}

func TestBuildEndpointRequestOddsWindow(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	h := env.srv.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{
		ModelText: testModel,
		Region:    " EU ",
		FromISO:   "2025-09-07T00:00:00Z",
		ToISO:     "2025-09-09T06:00:00Z",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q := <-env.odds.queries
	assert.Equal(t, "eu", q.Get("regions"))
	assert.Equal(t, "2025-09-07T00:00:00Z", q.Get("commenceTimeFrom"))
	assert.Equal(t, "2025-09-09T06:00:00Z", q.Get("commenceTimeTo"))
	assert.NoFileExists(t, env.cfg.OddsAPI.CacheFile)

	rec = doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{ModelText: testModel})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q = <-env.odds.queries
	assert.Equal(t, "us", q.Get("regions"), "configured window is untouched by earlier requests")
	assert.Empty(t, q.Get("commenceTimeFrom"))
}

func TestBuildEndpointWeekCache(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)
	h := env.srv.Router()
	week := 3

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/build", BuildRequest{ModelText: testModel, Week: &week})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	assert.Equal(t, int32(1), env.odds.Hits())
	weekFile := filepath.Join(filepath.Dir(env.cfg.OddsAPI.CacheFile), ".odds_cache_week3_all.json")
	assert.FileExists(t, weekFile)
}

func TestBuildEndpointWeekWithoutOdds(t *testing.T) {
	env := newTestEnv(t, http.StatusServiceUnavailable)
	week := 5

	rec := doJSON(t, env.srv.Router(), http.MethodPost, "/api/build", BuildRequest{ModelText: testModel, Week: &week})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.ErrNoWeekOdds.Error(), resp.Error)
	assert.NotEmpty(t, resp.Hint)
	assert.NotContains(t, rec.Body.String(), env.odds.srv.URL)
}

func TestExampleModelEndpoint(t *testing.T) {
	env := newTestEnv(t, http.StatusOK)

	rec := doJSON(t, env.srv.Router(), http.MethodGet, "/api/example_model", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExampleModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testModel, resp.Text)

	disabled := NewServer(Config{}, env.srv.svc)
	rec = doJSON(t, disabled.Router(), http.MethodGet, "/api/example_model", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Text)
}
