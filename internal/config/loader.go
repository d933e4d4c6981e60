package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// EV_PARLAY_PARLAY_BEAM_WIDTH
const EnvPrefix = "EV_PARLAY"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
// and fills any key the file omits from Default.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return unmarshal(v)
}

// LoadWithDefaults loads configuration like Load but tolerates a missing file,
// falling back to defaults and environment variables
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if cfg.OddsAPI.APIKey == "" {
		cfg.OddsAPI.APIKey = os.Getenv("ODDS_API_KEY")
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file omits the key
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.environment", d.App.Environment)
	v.SetDefault("app.log_level", d.App.LogLevel)

	v.SetDefault("odds_api.api_key", "")
	v.SetDefault("odds_api.base_url", d.OddsAPI.BaseURL)
	v.SetDefault("odds_api.sport", d.OddsAPI.Sport)
	v.SetDefault("odds_api.region", d.OddsAPI.Region)
	v.SetDefault("odds_api.market", d.OddsAPI.Market)
	v.SetDefault("odds_api.sportsbooks", d.OddsAPI.Sportsbooks)
	v.SetDefault("odds_api.date", "")
	v.SetDefault("odds_api.commence_from", "")
	v.SetDefault("odds_api.commence_to", "")
	v.SetDefault("odds_api.week", 0)
	v.SetDefault("odds_api.cache_file", d.OddsAPI.CacheFile)
	v.SetDefault("odds_api.ttl_seconds", d.OddsAPI.TTLSeconds)
	v.SetDefault("odds_api.timeout_seconds", d.OddsAPI.TimeoutSeconds)
	v.SetDefault("odds_api.max_retries", d.OddsAPI.MaxRetries)
	v.SetDefault("odds_api.rate_limit", d.OddsAPI.RateLimit)
	v.SetDefault("odds_api.burst", d.OddsAPI.Burst)

	v.SetDefault("parlay.sizes", d.Parlay.Sizes)
	v.SetDefault("parlay.beam_width", d.Parlay.BeamWidth)
	v.SetDefault("parlay.candidate_pool_size", d.Parlay.CandidatePoolSize)
	v.SetDefault("parlay.min_edge", d.Parlay.MinEdge)
	v.SetDefault("parlay.min_parlay_ev", d.Parlay.MinParlayEV)
	v.SetDefault("parlay.max_tickets", d.Parlay.MaxTickets)
	v.SetDefault("parlay.desired_num_tickets", d.Parlay.DesiredNumTickets)
	v.SetDefault("parlay.team_exposure_cap", d.Parlay.TeamExposureCap)
	v.SetDefault("parlay.correlation_rho", d.Parlay.CorrelationRho)
	v.SetDefault("parlay.solver_timeout_ms", d.Parlay.SolverTimeoutMs)
	v.SetDefault("parlay.solver_node_limit", d.Parlay.SolverNodeLimit)
	v.SetDefault("parlay.allow_duplicate_tickets", d.Parlay.AllowDuplicateTickets)
	v.SetDefault("parlay.derivation_sizes", d.Parlay.DerivationSizes)
	v.SetDefault("parlay.derivation_limit_per_size", d.Parlay.DerivationLimitPerSize)
	v.SetDefault("parlay.size_diversify", d.Parlay.SizeDiversify)

	v.SetDefault("stake.bankroll", d.Stake.Bankroll)
	v.SetDefault("stake.kelly_fraction", d.Stake.KellyFraction)
	v.SetDefault("stake.flat_stake", d.Stake.FlatStake)
	v.SetDefault("stake.run_budget", d.Stake.RunBudget)
	v.SetDefault("stake.method", d.Stake.Method)
	v.SetDefault("stake.max_stake_pct", d.Stake.MaxStakePct)
	v.SetDefault("stake.min_stake", d.Stake.MinStake)

	v.SetDefault("simulation.trials", d.Simulation.Trials)
	v.SetDefault("simulation.seed", d.Simulation.Seed)
	v.SetDefault("simulation.workers", d.Simulation.Workers)
	v.SetDefault("simulation.chunk_size", d.Simulation.ChunkSize)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.refresh_cron", d.Server.RefreshCron)
	v.SetDefault("server.request_timeout_seconds", d.Server.RequestTimeoutSeconds)
	v.SetDefault("server.model_dir", d.Server.ModelDir)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}
