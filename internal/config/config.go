// Package config provides configuration management for the parlay builder.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/yourusername/ev-parlay/internal/allocator"
	"github.com/yourusername/ev-parlay/internal/builder"
	"github.com/yourusername/ev-parlay/internal/oddsapi"
	"github.com/yourusername/ev-parlay/internal/simulate"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	OddsAPI    OddsAPIConfig    `mapstructure:"odds_api" validate:"required"`
	Parlay     ParlayConfig     `mapstructure:"parlay" validate:"required"`
	Stake      StakeConfig      `mapstructure:"stake" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// OddsAPIConfig represents The Odds API client and cache configuration
type OddsAPIConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	BaseURL        string   `mapstructure:"base_url" validate:"required,url"`
	Sport          string   `mapstructure:"sport" validate:"required"`
	Region         string   `mapstructure:"region" validate:"required"`
	Market         string   `mapstructure:"market" validate:"required"`
	Sportsbooks    []string `mapstructure:"sportsbooks"`
	Date           string   `mapstructure:"date"`
	CommenceFrom   string   `mapstructure:"commence_from"`
	CommenceTo     string   `mapstructure:"commence_to"`
	Week           int      `mapstructure:"week" validate:"gte=0"`
	CacheFile      string   `mapstructure:"cache_file" validate:"required"`
	TTLSeconds     int      `mapstructure:"ttl_seconds" validate:"gte=0"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxRetries     int      `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"gt=0"`
	Burst          int      `mapstructure:"burst" validate:"gt=0"`
}

// ParlayConfig represents candidate generation, selection and derivation
type ParlayConfig struct {
	Sizes                  []int   `mapstructure:"sizes" validate:"required,min=1,parlaysizes"`
	BeamWidth              int     `mapstructure:"beam_width" validate:"gt=0"`
	CandidatePoolSize      int     `mapstructure:"candidate_pool_size" validate:"gte=0"`
	MinEdge                float64 `mapstructure:"min_edge"`
	MinParlayEV            float64 `mapstructure:"min_parlay_ev"`
	MaxTickets             int     `mapstructure:"max_tickets" validate:"gt=0"`
	DesiredNumTickets      int     `mapstructure:"desired_num_tickets" validate:"gte=0"`
	TeamExposureCap        float64 `mapstructure:"team_exposure_cap" validate:"gte=0,lte=1"`
	CorrelationRho         float64 `mapstructure:"correlation_rho" validate:"gte=0,lte=1"`
	SolverTimeoutMs        int     `mapstructure:"solver_timeout_ms" validate:"gte=0"`
	SolverNodeLimit        int     `mapstructure:"solver_node_limit" validate:"gte=0"`
	AllowDuplicateTickets  bool    `mapstructure:"allow_duplicate_tickets"`
	DerivationSizes        []int   `mapstructure:"derivation_sizes"`
	DerivationLimitPerSize int     `mapstructure:"derivation_limit_per_size" validate:"gte=0"`
	SizeDiversify          bool    `mapstructure:"size_diversify"`
}

// StakeConfig represents bankroll and budget allocation configuration
type StakeConfig struct {
	Bankroll      float64 `mapstructure:"bankroll" validate:"gt=0"`
	KellyFraction float64 `mapstructure:"kelly_fraction" validate:"gte=0,lte=1"`
	FlatStake     float64 `mapstructure:"flat_stake" validate:"gte=0"`
	RunBudget     float64 `mapstructure:"run_budget" validate:"gte=0"`
	Method        string  `mapstructure:"method" validate:"required,stakemethod"`
	MaxStakePct   float64 `mapstructure:"max_stake_pct" validate:"gte=0,lte=1"`
	MinStake      float64 `mapstructure:"min_stake" validate:"gte=0"`
}

// SimulationConfig represents Monte Carlo configuration
type SimulationConfig struct {
	Trials    int   `mapstructure:"trials" validate:"gt=0"`
	Seed      int64 `mapstructure:"seed"`
	Workers   int   `mapstructure:"workers" validate:"gte=0"`
	ChunkSize int   `mapstructure:"chunk_size" validate:"gte=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port                  int      `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	RefreshCron           string   `mapstructure:"refresh_cron"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	ModelDir              string   `mapstructure:"model_dir"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "ev-parlay",
			Environment: "development",
			LogLevel:    "info",
		},
		OddsAPI: OddsAPIConfig{
			BaseURL:        "https://api.the-odds-api.com",
			Sport:          "americanfootball_nfl",
			Region:         "us",
			Market:         "h2h",
			Sportsbooks:    []string{"draftkings", "fanduel", "betmgm"},
			CacheFile:      ".odds_cache.json",
			TTLSeconds:     300,
			TimeoutSeconds: 20,
			MaxRetries:     3,
			RateLimit:      1,
			Burst:          1,
		},
		Parlay: ParlayConfig{
			Sizes:                  []int{3, 4, 5, 6, 7, 8, 9, 10},
			BeamWidth:              50,
			CandidatePoolSize:      50,
			MaxTickets:             8,
			TeamExposureCap:        0.35,
			SolverTimeoutMs:        5000,
			SolverNodeLimit:        2000000,
			AllowDuplicateTickets:  true,
			DerivationSizes:        []int{6, 5, 4, 3},
			DerivationLimitPerSize: 20,
			SizeDiversify:          true,
		},
		Stake: StakeConfig{
			Bankroll:      1000,
			KellyFraction: 0.5,
			FlatStake:     10,
			Method:        allocator.MethodKellyNorm,
			MaxStakePct:   0.4,
		},
		Simulation: SimulationConfig{
			Trials: 50000,
			Seed:   42,
		},
		Server: ServerConfig{
			Port:                  8000,
			AllowedOrigins:        []string{"*"},
			RequestTimeoutSeconds: 60,
			ModelDir:              "examples",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// HasBudget reports whether a run budget overrides the per-ticket stakes
func (c *Config) HasBudget() bool {
	return c.Stake.RunBudget > 0
}

// WeekCacheFile is the week-scoped odds cache, kept beside the main cache file
func (c *Config) WeekCacheFile() string {
	if c.OddsAPI.Week <= 0 {
		return ""
	}
	dir := filepath.Dir(c.OddsAPI.CacheFile)
	return filepath.Join(dir, fmt.Sprintf(".odds_cache_week%d_all.json", c.OddsAPI.Week))
}

// OddsClientConfig converts the odds section for the odds client. Setting a
// week switches to the week's cache file, which is read whenever present.
func (c *Config) OddsClientConfig() oddsapi.Config {
	o := c.OddsAPI
	httpCfg := oddsapi.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(o.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = o.MaxRetries
	httpCfg.RateLimit = o.RateLimit
	httpCfg.Burst = o.Burst

	cfg := oddsapi.Config{
		APIKey:       o.APIKey,
		BaseURL:      o.BaseURL,
		Sport:        o.Sport,
		Region:       o.Region,
		Market:       o.Market,
		Date:         o.Date,
		CommenceFrom: o.CommenceFrom,
		CommenceTo:   o.CommenceTo,
		CacheFile:    o.CacheFile,
		TTL:          time.Duration(o.TTLSeconds) * time.Second,
		HTTP:         httpCfg,
	}
	if week := c.WeekCacheFile(); week != "" {
		cfg.CacheFile = week
		cfg.PinCache = true
	}
	return cfg
}

// BeamOptions converts the parlay section for the candidate generator
func (c *Config) BeamOptions() builder.BeamOptions {
	return builder.BeamOptions{
		Sizes:             append([]int(nil), c.Parlay.Sizes...),
		BeamWidth:         c.Parlay.BeamWidth,
		CandidatePoolSize: c.Parlay.CandidatePoolSize,
		Rho:               c.Parlay.CorrelationRho,
	}
}

// SelectorOptions converts the parlay and stake sections for the selector
func (c *Config) SelectorOptions() builder.SelectorOptions {
	return builder.SelectorOptions{
		MaxTickets:      c.Parlay.MaxTickets,
		DesiredTickets:  c.Parlay.DesiredNumTickets,
		TeamExposureCap: c.Parlay.TeamExposureCap,
		Rho:             c.Parlay.CorrelationRho,
		Bankroll:        c.Stake.Bankroll,
		KellyMultiplier: c.Stake.KellyFraction,
		FlatStake:       c.Stake.FlatStake,
	}
}

// DerivationOptions converts the parlay section for the derivation engine
func (c *Config) DerivationOptions() builder.DerivationOptions {
	return builder.DerivationOptions{
		Sizes:           append([]int(nil), c.Parlay.DerivationSizes...),
		LimitPerSize:    c.Parlay.DerivationLimitPerSize,
		MinParlayEV:     c.Parlay.MinParlayEV,
		SizeDiversify:   c.Parlay.SizeDiversify,
		AllowDuplicates: c.Parlay.AllowDuplicateTickets,
		Rho:             c.Parlay.CorrelationRho,
	}
}

// AllocationOptions converts the stake section for the allocator
func (c *Config) AllocationOptions() allocator.Options {
	return allocator.Options{
		Budget:         c.Stake.RunBudget,
		Method:         c.Stake.Method,
		MaxStakePct:    c.Stake.MaxStakePct,
		MinStake:       c.Stake.MinStake,
		DesiredTickets: c.Parlay.DesiredNumTickets,
		MaxTickets:     c.Parlay.MaxTickets,
	}
}

// SimulationOptions converts the simulation section for the simulator
func (c *Config) SimulationOptions() simulate.Config {
	return simulate.Config{
		Trials:    c.Simulation.Trials,
		Seed:      c.Simulation.Seed,
		Workers:   c.Simulation.Workers,
		ChunkSize: c.Simulation.ChunkSize,
	}
}

// NewSolver builds the branch-and-bound solver with the configured budget
func (c *Config) NewSolver() *builder.BranchAndBound {
	return builder.NewBranchAndBound(c.Parlay.SolverNodeLimit, time.Duration(c.Parlay.SolverTimeoutMs)*time.Millisecond)
}
