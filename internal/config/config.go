// Package config builds the single immutable configuration value of the scanner.
//
// Sources, later wins: built-in defaults, optional YAML file, .env file,
// DOG_SCOUT_* environment variables, CLI overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinLoopInterval is the floor applied to CLI interval overrides.
const MinLoopInterval = 5 * time.Second

// Config is passed by value; nothing mutates it after Load.
type Config struct {
	Chain            string        `yaml:"chain"`
	LoopInterval     time.Duration `yaml:"loop_interval"`
	TopN             int           `yaml:"top_n"`
	DedupCooldown    time.Duration `yaml:"dedup_cooldown"`
	DryRun           bool          `yaml:"dry_run"`
	UseMockData      bool          `yaml:"use_mock_data"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxNewTokens     int           `yaml:"max_new_tokens"`
	RecheckBatchSize int           `yaml:"recheck_batch_size"`

	Rules       Rules       `yaml:"rules"`
	LLM         LLM         `yaml:"llm"`
	Telegram    Telegram    `yaml:"telegram"`
	Dexscreener Dexscreener `yaml:"dexscreener"`
	Storage     Storage     `yaml:"storage"`
	Redis       Redis       `yaml:"redis"`
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
}

// Rules are the hard-filter and rule-scorer thresholds.
type Rules struct {
	MinLiquidityUSD       float64  `yaml:"min_liquidity_usd"`
	MinHolders            int      `yaml:"min_holders"`
	MaxTop10Concentration float64  `yaml:"max_top10_concentration"`
	Denylist              []string `yaml:"denylist"`
	TxnTargetH1           int      `yaml:"txn_target_h1"`
	MomentumBlowoff       float64  `yaml:"momentum_blowoff_threshold"`
}

// IsDenylisted reports whether token is on the denylist (case-insensitive).
func (r Rules) IsDenylisted(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, d := range r.Denylist {
		if d == token {
			return true
		}
	}
	return false
}

// Weights are the score merge weights.
type Weights struct {
	Rule float64
	LLM  float64
}

// LLM configures the narrative analyzer.
type LLM struct {
	Enabled    bool          `yaml:"enabled"`
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	LLMWeight  float64       `yaml:"llm_weight"`
	RuleWeight float64       `yaml:"rule_weight"`
}

// Weights returns the configured merge weights.
func (l LLM) Weights() Weights {
	return Weights{Rule: l.RuleWeight, LLM: l.LLMWeight}
}

// Telegram configures outbound notifications.
type Telegram struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIURL   string `yaml:"api_url"`
}

// Dexscreener configures the market data client.
type Dexscreener struct {
	BaseURL            string `yaml:"base_url"`
	ProfilesPerMinute  int    `yaml:"profiles_per_minute"`
	PairsPerMinute     int    `yaml:"pairs_per_minute"`
	BreakerMaxFailures uint32 `yaml:"breaker_max_failures"`
}

// Storage selects the record store backend.
type Storage struct {
	Backend       string `yaml:"backend"` // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional analytics sink
}

// Redis configures the optional cooldown cache.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Server configures the inspection API.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log configures logrus.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Chain:            "base",
		LoopInterval:     120 * time.Second,
		TopN:             5,
		DedupCooldown:    30 * time.Minute,
		DryRun:           true,
		UseMockData:      false,
		RequestTimeout:   10 * time.Second,
		MaxNewTokens:     40,
		RecheckBatchSize: 20,
		Rules: Rules{
			MinLiquidityUSD:       20000,
			MinHolders:            100,
			MaxTop10Concentration: 0.50,
			TxnTargetH1:           100,
			MomentumBlowoff:       80,
		},
		LLM: LLM{
			Enabled:    false,
			Provider:   "deepseek",
			BaseURL:    "https://api.deepseek.com/v1",
			Model:      "deepseek-chat",
			Timeout:    12 * time.Second,
			LLMWeight:  0.30,
			RuleWeight: 0.70,
		},
		Telegram: Telegram{
			APIURL: "https://api.telegram.org/bot%s/%s",
		},
		Dexscreener: Dexscreener{
			BaseURL:            "https://api.dexscreener.com",
			ProfilesPerMinute:  60,
			PairsPerMinute:     300,
			BreakerMaxFailures: 5,
		},
		Storage: Storage{Backend: "memory"},
		Server:  Server{Addr: ":9090"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML file.
	File string
	// EnvFile is an optional .env file; a missing file is ignored.
	EnvFile string
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds a validated Config.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err := applyEnv(cfg, lookup)
	if err != nil {
		return Config{}, err
	}

	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overrides are CLI-supplied settings.
type Overrides struct {
	Interval    *time.Duration
	DryRun      bool
	UseMockData bool
}

// WithOverrides returns a copy with CLI overrides applied.
// The interval is floored at MinLoopInterval; the booleans only ever switch on.
func (c Config) WithOverrides(o Overrides) Config {
	out := c
	out.Rules.Denylist = append([]string(nil), c.Rules.Denylist...)
	if o.Interval != nil {
		out.LoopInterval = max(*o.Interval, MinLoopInterval)
	}
	if o.DryRun {
		out.DryRun = true
	}
	if o.UseMockData {
		out.UseMockData = true
	}
	return out
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Chain == "" {
		errs = append(errs, errors.New("chain is required"))
	}
	if c.LoopInterval <= 0 {
		errs = append(errs, errors.New("loop_interval must be positive"))
	}
	if c.TopN <= 0 {
		errs = append(errs, errors.New("top_n must be positive"))
	}
	if c.DedupCooldown < 0 {
		errs = append(errs, errors.New("dedup_cooldown must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.MaxNewTokens <= 0 {
		errs = append(errs, errors.New("max_new_tokens must be positive"))
	}
	if c.RecheckBatchSize <= 0 {
		errs = append(errs, errors.New("recheck_batch_size must be positive"))
	}
	if c.Rules.MinLiquidityUSD < 0 || c.Rules.MinHolders < 0 || c.Rules.MaxTop10Concentration < 0 {
		errs = append(errs, errors.New("rule thresholds must not be negative"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm timeout must be positive"))
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres backend requires postgres_dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) normalized() Config {
	out := c
	out.Chain = strings.ToLower(strings.TrimSpace(c.Chain))
	out.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	out.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	deny := make([]string, 0, len(c.Rules.Denylist))
	for _, d := range c.Rules.Denylist {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			deny = append(deny, d)
		}
	}
	out.Rules.Denylist = deny
	return out
}
