package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/logger"
	"github.com/yourusername/ev-parlay/internal/metrics"
)

// ErrMissingAPIKey is returned when a live fetch is needed but no key is set
var ErrMissingAPIKey = errors.New("odds api key is not set")

const (
	SourceMemory = "memory"
	SourceCache  = "cache"
	SourceAPI    = "api"

	payloadKey = "payload"
)

// OddsSource supplies the current odds slate
type OddsSource interface {
	Fetch(ctx context.Context) ([]Event, error)
}

// Config describes the odds endpoint and cache
type Config struct {
	APIKey       string
	BaseURL      string
	Sport        string
	Region       string
	Market       string
	Date         string
	CommenceFrom string
	CommenceTo   string
	CacheFile    string
	TTL          time.Duration
	// PinCache keeps the cache file regardless of age or TTL
	PinCache bool
	HTTP     HTTPClientConfig
}

// Client fetches odds through a memory cache, a file cache and the API
type Client struct {
	cfg    Config
	http   *RateLimitedHTTPClient
	memory *cache.Cache
	log    *logger.OddsLogger

	mu sync.Mutex
}

// NewClient creates an odds client. A non-positive TTL disables both caches
// unless the cache file is pinned.
func NewClient(cfg Config, log *logger.OddsLogger) *Client {
	if log == nil {
		base := logrus.New()
		base.SetOutput(io.Discard)
		log = logger.NewOddsLogger(base)
	}
	if cfg.HTTP == (HTTPClientConfig{}) {
		cfg.HTTP = DefaultHTTPClientConfig()
	}
	if cfg.Market == "" {
		cfg.Market = DefaultMarket
	}
	c := &Client{
		cfg:  cfg,
		http: NewRateLimitedHTTPClient(cfg.HTTP, log),
		log:  log,
	}
	if cfg.TTL > 0 {
		c.memory = cache.New(cfg.TTL, 2*cfg.TTL)
	}
	return c
}

// Fetch returns the slate from the freshest source available
func (c *Client) Fetch(ctx context.Context) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	if c.memory != nil {
		if cached, ok := c.memory.Get(payloadKey); ok {
			events := cached.([]Event)
			c.loaded(SourceMemory, events, start)
			return events, nil
		}
	}

	if events, ok := c.readCache(); ok {
		c.remember(events)
		c.loaded(SourceCache, events, start)
		return events, nil
	}

	events, err := c.fetchAPI(ctx)
	if err != nil {
		return nil, err
	}
	c.loaded(SourceAPI, events, start)
	return events, nil
}

// Refresh bypasses both caches and rewrites them from the API
func (c *Client) Refresh(ctx context.Context) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	events, err := c.fetchAPI(ctx)
	if err != nil {
		return nil, err
	}
	c.loaded(SourceAPI, events, start)
	return events, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) loaded(source string, events []Event, start time.Time) {
	metrics.RecordOddsFetch(source)
	c.log.LogOddsFetch(source, len(events), float64(time.Since(start).Milliseconds()))
}

func (c *Client) remember(events []Event) {
	if c.memory != nil {
		c.memory.SetDefault(payloadKey, events)
	}
}

func (c *Client) readCache() ([]Event, bool) {
	if !c.fileCacheEnabled() {
		return nil, false
	}
	info, err := os.Stat(c.cfg.CacheFile)
	if err != nil {
		return nil, false
	}
	if !c.cfg.PinCache && time.Since(info.ModTime()) > c.cfg.TTL {
		return nil, false
	}
	events, err := LoadFile(c.cfg.CacheFile)
	if err != nil {
		c.log.WithError(err).Warn("Ignoring unreadable odds cache")
		return nil, false
	}
	return events, true
}

func (c *Client) fetchAPI(ctx context.Context) ([]Event, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		c.log.LogFetchError(err)
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read odds response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("odds api returned %s: %s", resp.Status, truncate(string(body), 200))
		c.log.LogFetchError(err)
		return nil, err
	}

	events, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if err := c.writeCache(body); err != nil {
		c.log.WithError(err).Warn("Failed to write odds cache")
	}
	c.remember(events)
	return events, nil
}

func (c *Client) endpoint() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse odds base url: %w", err)
	}
	base.Path += "/v4/sports/" + url.PathEscape(c.cfg.Sport) + "/odds"

	q := url.Values{}
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("regions", c.cfg.Region)
	q.Set("markets", c.cfg.Market)
	q.Set("oddsFormat", "american")
	if c.cfg.Date != "" {
		q.Set("dateFormat", "iso")
		q.Set("date", c.cfg.Date)
	}
	if c.cfg.CommenceFrom != "" {
		q.Set("commenceTimeFrom", c.cfg.CommenceFrom)
	}
	if c.cfg.CommenceTo != "" {
		q.Set("commenceTimeTo", c.cfg.CommenceTo)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (c *Client) fileCacheEnabled() bool {
	return c.cfg.CacheFile != "" && (c.cfg.PinCache || c.cfg.TTL > 0)
}

// writeCache replaces the cache file atomically
func (c *Client) writeCache(body []byte) error {
	if !c.fileCacheEnabled() {
		return nil
	}
	dir := filepath.Dir(c.cfg.CacheFile)
	tmp, err := os.CreateTemp(dir, ".odds-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), c.cfg.CacheFile); err != nil {
		return err
	}
	c.log.LogCacheWrite(c.cfg.CacheFile, len(body))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
