// Package dexscreener fetches newly listed pairs from the Dexscreener public API.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"dog-scout/internal/chain"
	"dog-scout/internal/config"
	"dog-scout/internal/domain"
	"dog-scout/internal/market"
	"dog-scout/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL            = "https://api.dexscreener.com"
	DefaultTimeout            = 10 * time.Second
	DefaultProfilesPerMinute  = 60
	DefaultPairsPerMinute     = 300
	DefaultBreakerMaxFailures = 5
	DefaultBreakerCooldown    = 60 * time.Second
)

const (
	profilesPath = "/token-profiles/latest/v1"
	pairsPath    = "/token-pairs/v1/%s/%s"
)

// Client implements market.Source against Dexscreener.
type Client struct {
	http        *resty.Client
	profiles    *rate.Limiter
	pairs       *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxFailures uint32
	timeout     time.Duration
	log         logrus.FieldLogger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimits sets requests per minute for the profiles and pairs endpoints.
func WithRateLimits(profilesPerMinute, pairsPerMinute int) ClientOption {
	return func(c *Client) {
		if profilesPerMinute > 0 {
			c.profiles = perMinute(profilesPerMinute)
		}
		if pairsPerMinute > 0 {
			c.pairs = perMinute(pairsPerMinute)
		}
	}
}

// WithBreakerMaxFailures trips the breaker after n consecutive failures.
func WithBreakerMaxFailures(n uint32) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxFailures = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a Dexscreener client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:        resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetHeader("Accept", "application/json"),
		profiles:    perMinute(DefaultProfilesPerMinute),
		pairs:       perMinute(DefaultPairsPerMinute),
		maxFailures: DefaultBreakerMaxFailures,
		timeout:     DefaultTimeout,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "dexscreener")

	maxFailures := c.maxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dexscreener",
		Timeout: DefaultBreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state change")
		},
	})
	return c
}

// NewFromConfig creates a client from the scanner configuration.
func NewFromConfig(cfg config.Config, log logrus.FieldLogger) *Client {
	return NewClient(cfg.Dexscreener.BaseURL,
		WithTimeout(cfg.RequestTimeout),
		WithRateLimits(cfg.Dexscreener.ProfilesPerMinute, cfg.Dexscreener.PairsPerMinute),
		WithBreakerMaxFailures(cfg.Dexscreener.BreakerMaxFailures),
		WithLogger(log),
	)
}

func perMinute(n int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Compile-time interface check.
var _ market.Source = (*Client)(nil)

// FetchNewPairs returns the newest pair of each recently profiled token on chainID.
func (c *Client) FetchNewPairs(ctx context.Context, chainID string, maxTokens int) []domain.PairSnapshot {
	tokens := c.fetchLatestTokens(ctx, chainID, maxTokens)
	if len(tokens) == 0 {
		c.log.WithField("chain", chainID).Warn("no latest token profiles returned")
		return nil
	}

	var out []domain.PairSnapshot
	for _, token := range tokens {
		if ctx.Err() != nil {
			break
		}
		if newest, ok := market.NewestPair(c.FetchTokenPairs(ctx, chainID, token)); ok {
			out = append(out, newest)
		}
	}
	return out
}

// FetchTokenPairs returns every parseable pair of tokenAddress on chainID.
func (c *Client) FetchTokenPairs(ctx context.Context, chainID, tokenAddress string) []domain.PairSnapshot {
	path := fmt.Sprintf(pairsPath, url.PathEscape(strings.ToLower(chainID)), url.PathEscape(tokenAddress))
	var payload []json.RawMessage
	if err := c.getJSON(ctx, c.pairs, "pairs", path, &payload); err != nil {
		c.log.WithError(err).WithField("token", tokenAddress).Warn("fetch token pairs failed")
		return nil
	}

	var out []domain.PairSnapshot
	for _, raw := range payload {
		p, err := parsePair(raw)
		if err != nil {
			c.log.WithError(err).Debug("skip unparseable pair")
			continue
		}
		out = append(out, p)
	}
	return out
}

type tokenProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// fetchLatestTokens returns up to maxTokens distinct token addresses on chainID.
func (c *Client) fetchLatestTokens(ctx context.Context, chainID string, maxTokens int) []string {
	var payload []json.RawMessage
	if err := c.getJSON(ctx, c.profiles, "profiles", profilesPath, &payload); err != nil {
		c.log.WithError(err).Warn("fetch token profiles failed")
		return nil
	}

	want := strings.ToLower(strings.TrimSpace(chainID))
	seen := make(map[string]struct{})
	var tokens []string
	for _, raw := range payload {
		if len(tokens) >= maxTokens {
			break
		}
		var p tokenProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		addr := strings.TrimSpace(p.TokenAddress)
		if strings.ToLower(p.ChainID) != want || addr == "" {
			continue
		}
		key, err := chain.NormalizeAddress(want, addr)
		if err != nil {
			c.log.WithError(err).Debug("skip invalid token address")
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, addr)
	}
	return tokens
}

// getJSON performs a rate-limited, breaker-guarded GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, limiter *rate.Limiter, target, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().SetContext(ctx).Get(path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	observability.RecordExternalCall("dexscreener_"+target, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return fmt.Errorf("breaker open: %w", err)
		}
		return fmt.Errorf("get %s: %w", path, err)
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
