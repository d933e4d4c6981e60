package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ev-parlay/internal/allocator"
	"github.com/yourusername/ev-parlay/internal/config"
	"github.com/yourusername/ev-parlay/internal/models"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/slate"
)

// MockOddsSource mocks the odds source
type MockOddsSource struct {
	mock.Mock
}

func (m *MockOddsSource) Fetch(ctx context.Context) ([]oddsapi.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]oddsapi.Event), args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func evenGame(id, home, away string) oddsapi.Event {
	even := 100.0
	return oddsapi.Event{
		ID:       id,
		HomeTeam: home,
		AwayTeam: away,
		Bookmakers: []oddsapi.Bookmaker{{
			Key: "draftkings",
			Markets: []oddsapi.Market{{Key: "h2h", Outcomes: []oddsapi.Outcome{
				{Name: home, Price: &even},
				{Name: away, Price: &even},
			}}},
		}},
	}
}

func testSlate() []oddsapi.Event {
	return []oddsapi.Event{
		evenGame("g1", "Buffalo Bills", "Kansas City Chiefs"),
		evenGame("g2", "Philadelphia Eagles", "Dallas Cowboys"),
		evenGame("g3", "San Francisco 49ers", "Seattle Seahawks"),
		evenGame("g4", "Detroit Lions", "Green Bay Packers"),
	}
}

func testSelections() []models.Leg {
	return []models.Leg{
		{TeamName: "Buffalo Bills", TeamAbbr: "BUF", ModelWinProb: 0.6},
		{TeamName: "Philadelphia Eagles", TeamAbbr: "PHI", ModelWinProb: 0.6},
		{TeamName: "San Francisco 49ers", TeamAbbr: "SF", ModelWinProb: 0.6},
		{TeamName: "Detroit Lions", TeamAbbr: "DET", ModelWinProb: 0.6},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.OddsAPI.Sportsbooks = []string{"draftkings"}
	cfg.Parlay.Sizes = []int{2, 3}
	cfg.Parlay.MaxTickets = 3
	cfg.Parlay.TeamExposureCap = 1
	cfg.Parlay.DerivationSizes = []int{2}
	return cfg
}

func TestBuildFetchesOddsAndSelects(t *testing.T) {
	source := new(MockOddsSource)
	source.On("Fetch", mock.Anything).Return(testSlate(), nil).Once()
	svc := NewParlayService(testConfig(), source, quietLogger())

	result, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections()})

	require.NoError(t, err)
	source.AssertExpectations(t)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Len(t, result.Singles, 4)
	require.NotEmpty(t, result.Tickets)
	assert.LessOrEqual(t, len(result.Tickets), 3)
	for _, ticket := range result.Tickets {
		assert.NoError(t, ticket.Validate())
		assert.Greater(t, ticket.ExpectedValue, 0.0)
	}
	assert.Equal(t, len(result.Tickets), result.Summary.Count)
	assert.Empty(t, result.MissingOdds)
}

func TestBuildWithBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Parlay.DesiredNumTickets = 2
	cfg.Stake.RunBudget = 100
	cfg.Stake.Method = allocator.MethodEqual
	cfg.Stake.MaxStakePct = 0
	svc := NewParlayService(cfg, nil, quietLogger())

	result, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Events: testSlate()})

	require.NoError(t, err)
	require.Len(t, result.Tickets, 2)
	total := 0.0
	for _, ticket := range result.Tickets {
		assert.Equal(t, 3, ticket.Size)
		assert.InDelta(t, 50, ticket.Stake(), 1e-9)
		total += ticket.Stake()
	}
	assert.InDelta(t, 100, total, 1e-9)
}

func TestBuildRequestConfigOverridesService(t *testing.T) {
	svc := NewParlayService(testConfig(), nil, quietLogger())
	override := testConfig()
	override.Parlay.MinParlayEV = 100

	result, err := svc.Build(context.Background(), BuildRequest{
		Selections: testSelections(),
		Events:     testSlate(),
		Config:     override,
	})

	require.NoError(t, err)
	assert.Empty(t, result.Tickets)
	assert.Len(t, result.Singles, 4)
}

func TestBuildMissingTeams(t *testing.T) {
	svc := NewParlayService(testConfig(), nil, quietLogger())
	selections := append(testSelections(), models.Leg{TeamName: "Miami Dolphins", TeamAbbr: "MIA", ModelWinProb: 0.7})

	_, err := svc.Build(context.Background(), BuildRequest{Selections: selections, Events: testSlate()})

	require.ErrorIs(t, err, slate.ErrTeamsNotInSlate)
	var missing *slate.MissingTeamsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"MIA"}, missing.Teams)
}

func TestBuildReportsTeamsWithoutOdds(t *testing.T) {
	cfg := testConfig()
	cfg.OddsAPI.Sportsbooks = []string{"fanduel"}
	svc := NewParlayService(cfg, nil, quietLogger())

	result, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Events: testSlate()})

	require.NoError(t, err)
	assert.Empty(t, result.Singles)
	assert.Empty(t, result.Tickets)
	assert.ElementsMatch(t, []string{"BUF", "PHI", "SF", "DET"}, result.MissingOdds)
}

func TestBuildOddsSourceError(t *testing.T) {
	source := new(MockOddsSource)
	source.On("Fetch", mock.Anything).Return(nil, oddsapi.ErrMissingAPIKey)
	svc := NewParlayService(testConfig(), source, quietLogger())

	_, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections()})

	assert.ErrorIs(t, err, oddsapi.ErrMissingAPIKey)
}

func TestBuildNoSelections(t *testing.T) {
	svc := NewParlayService(testConfig(), nil, quietLogger())

	_, err := svc.Build(context.Background(), BuildRequest{})

	assert.ErrorIs(t, err, ErrNoSelections)
}

func TestSimulateOverrides(t *testing.T) {
	svc := NewParlayService(testConfig(), nil, quietLogger())
	tickets := []models.Ticket{
		{Size: 2, CombinedDecimal: 4, CombinedProbability: 0.36, ExpectedValue: 0.44, FlatStake: 10},
		{Size: 3, CombinedDecimal: 8, CombinedProbability: 0.216, ExpectedValue: 0.728, FlatStake: 10},
	}
	seed := int64(7)

	first, err := svc.Simulate(context.Background(), tickets, 2000, &seed)
	require.NoError(t, err)
	second, err := svc.Simulate(context.Background(), tickets, 2000, &seed)
	require.NoError(t, err)

	assert.Equal(t, 2000, first.Trials)
	assert.Equal(t, first, second)
	assert.InDelta(t, 11.68, first.ExpectedProfit, 1e-9)

	samples, err := svc.Samples(context.Background(), tickets, 500, &seed)
	require.NoError(t, err)
	assert.Len(t, samples, 500)
}

func TestBuildDropsNegativeEdgeSingles(t *testing.T) {
	events := append(testSlate(), evenGame("g5", "Miami Dolphins", "New York Jets"))
	selections := append(testSelections(), models.Leg{TeamName: "Miami Dolphins", TeamAbbr: "MIA", ModelWinProb: 0.4})
	svc := NewParlayService(testConfig(), nil, quietLogger())

	result, err := svc.Build(context.Background(), BuildRequest{Selections: selections, Events: events})

	require.NoError(t, err)
	assert.Len(t, result.Singles, 4)
	for _, leg := range result.Singles {
		assert.NotEqual(t, "MIA", leg.TeamAbbr)
		assert.GreaterOrEqual(t, leg.Edge, 0.0)
	}
	assert.Empty(t, result.MissingOdds)

	loose := testConfig()
	loose.Parlay.MinEdge = -1
	result, err = svc.Build(context.Background(), BuildRequest{Selections: selections, Events: events, Config: loose})
	require.NoError(t, err)
	assert.Len(t, result.Singles, 5)
}

// oddsBackend serves the test slate and records the regions of each request
func oddsBackend(t *testing.T, status int) (*httptest.Server, *int32, chan string) {
	t.Helper()
	body, err := json.Marshal(testSlate())
	require.NoError(t, err)
	var hits int32
	regions := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case regions <- r.URL.Query().Get("regions"):
		default:
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, regions
}

func liveConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := testConfig()
	cfg.OddsAPI.APIKey = "key"
	cfg.OddsAPI.BaseURL = baseURL
	cfg.OddsAPI.CacheFile = filepath.Join(t.TempDir(), ".odds_cache.json")
	cfg.OddsAPI.MaxRetries = 0
	cfg.OddsAPI.RateLimit = 100
	cfg.OddsAPI.Burst = 10
	return cfg
}

func TestBuildFetchesWithRequestOddsSettings(t *testing.T) {
	srv, hits, regions := oddsBackend(t, http.StatusOK)
	base := liveConfig(t, srv.URL)
	source := new(MockOddsSource)
	svc := NewParlayService(base, source, quietLogger())

	override := *base
	override.OddsAPI.Region = "eu"
	override.OddsAPI.CommenceFrom = "2025-09-07T00:00:00Z"
	result, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Config: &override})

	require.NoError(t, err)
	assert.Len(t, result.Singles, 4)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, "eu", <-regions)
	assert.NoFileExists(t, base.OddsAPI.CacheFile, "one-off windows are not cached")
	source.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestBuildSameSlateUsesServiceSource(t *testing.T) {
	srv, hits, _ := oddsBackend(t, http.StatusOK)
	base := liveConfig(t, srv.URL)
	source := new(MockOddsSource)
	source.On("Fetch", mock.Anything).Return(testSlate(), nil).Once()
	svc := NewParlayService(base, source, quietLogger())

	override := *base
	override.OddsAPI.Sportsbooks = []string{"DraftKings", "fanduel"}
	_, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Config: &override})

	require.NoError(t, err)
	source.AssertExpectations(t)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestBuildWeekCache(t *testing.T) {
	srv, hits, _ := oddsBackend(t, http.StatusOK)
	base := liveConfig(t, srv.URL)
	svc := NewParlayService(base, nil, quietLogger())

	week := *base
	week.OddsAPI.Week = 4
	for i := 0; i < 2; i++ {
		result, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Config: &week})
		require.NoError(t, err)
		assert.Len(t, result.Singles, 4)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second build reads the week cache")
	assert.FileExists(t, filepath.Join(filepath.Dir(base.OddsAPI.CacheFile), ".odds_cache_week4_all.json"))
}

func TestBuildWeekWithoutOdds(t *testing.T) {
	srv, _, _ := oddsBackend(t, http.StatusServiceUnavailable)
	base := liveConfig(t, srv.URL)
	svc := NewParlayService(base, nil, quietLogger())

	week := *base
	week.OddsAPI.Week = 9
	_, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections(), Config: &week})

	assert.ErrorIs(t, err, ErrNoWeekOdds)
}

func TestBuildWithoutOddsSource(t *testing.T) {
	svc := NewParlayService(testConfig(), nil, quietLogger())

	_, err := svc.Build(context.Background(), BuildRequest{Selections: testSelections()})

	assert.ErrorIs(t, err, ErrNoOddsSource)
}
