package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "DOG_SCOUT_"

// loadEnvFile exports the .env file into the process environment.
// Variables already set win over the file.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) get(name string) (string, bool) {
	v, ok := r.lookup(envPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) str(name string, dst *string) {
	if v, ok := r.get(name); ok {
		*dst = v
	}
}

func (r *envReader) boolean(name string, dst *bool) {
	if v, ok := r.get(name); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*dst = true
		default:
			*dst = false
		}
	}
}

func (r *envReader) integer(name string, dst *int) {
	if v, ok := r.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("parse %s%s: %w", envPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (r *envReader) float(name string, dst *float64) {
	if v, ok := r.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("parse %s%s: %w", envPrefix, name, err))
			return
		}
		*dst = f
	}
}

// scaled reads an integer count of unit into a duration.
func (r *envReader) scaled(name string, unit time.Duration, dst *time.Duration) {
	if v, ok := r.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("parse %s%s: %w", envPrefix, name, err))
			return
		}
		*dst = time.Duration(n) * unit
	}
}

func (r *envReader) csv(name string, dst *[]string) {
	if v, ok := r.get(name); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func applyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	r := &envReader{lookup: lookup}

	r.str("CHAIN_ID", &cfg.Chain)
	r.scaled("LOOP_INTERVAL_SECONDS", time.Second, &cfg.LoopInterval)
	r.integer("TOP_N", &cfg.TopN)
	r.scaled("DEDUP_COOLDOWN_MINUTES", time.Minute, &cfg.DedupCooldown)
	r.boolean("DRY_RUN", &cfg.DryRun)
	r.boolean("USE_MOCK_DATA", &cfg.UseMockData)
	r.scaled("REQUEST_TIMEOUT_SECONDS", time.Second, &cfg.RequestTimeout)
	r.integer("MAX_NEW_TOKENS", &cfg.MaxNewTokens)
	r.integer("RECHECK_BATCH_SIZE", &cfg.RecheckBatchSize)

	r.float("MIN_LIQUIDITY_USD", &cfg.Rules.MinLiquidityUSD)
	r.integer("MIN_HOLDERS", &cfg.Rules.MinHolders)
	r.float("MAX_TOP10_CONCENTRATION", &cfg.Rules.MaxTop10Concentration)
	r.csv("DENYLIST_TOKENS", &cfg.Rules.Denylist)
	r.integer("TXN_TARGET_H1", &cfg.Rules.TxnTargetH1)
	r.float("MOMENTUM_BLOWOFF_THRESHOLD", &cfg.Rules.MomentumBlowoff)

	r.boolean("LLM_ENABLED", &cfg.LLM.Enabled)
	r.str("LLM_PROVIDER", &cfg.LLM.Provider)
	r.str("LLM_BASE_URL", &cfg.LLM.BaseURL)
	r.str("LLM_API_KEY", &cfg.LLM.APIKey)
	r.str("LLM_MODEL", &cfg.LLM.Model)
	r.scaled("LLM_TIMEOUT_SECONDS", time.Second, &cfg.LLM.Timeout)
	r.float("LLM_WEIGHT", &cfg.LLM.LLMWeight)
	r.float("RULE_WEIGHT", &cfg.LLM.RuleWeight)

	r.boolean("TELEGRAM_ENABLED", &cfg.Telegram.Enabled)
	r.str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	r.str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)

	r.str("DEXSCREENER_BASE_URL", &cfg.Dexscreener.BaseURL)

	r.str("STORAGE_BACKEND", &cfg.Storage.Backend)
	r.str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	r.str("CLICKHOUSE_DSN", &cfg.Storage.ClickhouseDSN)

	r.str("REDIS_ADDR", &cfg.Redis.Addr)
	r.str("REDIS_PASSWORD", &cfg.Redis.Password)
	r.integer("REDIS_DB", &cfg.Redis.DB)

	r.str("HTTP_ADDR", &cfg.Server.Addr)
	r.str("LOG_LEVEL", &cfg.Log.Level)
	r.str("LOG_FORMAT", &cfg.Log.Format)

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}
