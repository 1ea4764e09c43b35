package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	PriceInterval   time.Duration
	QuoteTimeout    time.Duration
	QuoteRetries    int
	AlphaVantageKey string
	AlphaVantageURL string
	BinancePair     string
	YahooSymbols    []string
	Redis           RedisConfig
	QuoteCacheTTL   time.Duration
	AlertChannel    string
	CORSOrigins     []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	// Load .env file if it exists, but don't fail if it's missing (e.g. in production)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:            orDefault(getenv("PORT"), "8080"),
		PriceInterval:   seconds(getenv("PRICE_UPDATE_INTERVAL"), 3600),
		QuoteTimeout:    seconds(getenv("QUOTE_TIMEOUT"), 5),
		QuoteRetries:    2,
		AlphaVantageKey: getenv("ALPHAVANTAGE_API_KEY"),
		AlphaVantageURL: getenv("ALPHAVANTAGE_URL"),
		BinancePair:     orDefault(getenv("BINANCE_PAIR"), "BTCUSDT"),
		QuoteCacheTTL:   seconds(getenv("QUOTE_CACHE_TTL"), 60),
		AlertChannel:    orDefault(getenv("ALERT_CHANNEL"), "quantfolio:alerts"),
		Redis: RedisConfig{
			Host:     getenv("REDIS_HOST"),
			Port:     orDefault(getenv("REDIS_PORT"), "6379"),
			Password: getenv("REDIS_PASSWORD"),
		},
	}
	if v := getenv("QUOTE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.QuoteRetries = n
		}
	}
	if v := getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB value: %v", err)
		}
		cfg.Redis.DB = db
	}
	cfg.YahooSymbols = list(getenv("YAHOO_SYMBOLS"))
	cfg.CORSOrigins = list(getenv("CORS_ORIGINS"))
	return cfg, nil
}

// list splits a comma separated value, dropping blanks.
func list(v string) []string {
	var res []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// seconds parses a positive number of seconds, keeping def otherwise.
func seconds(v string, def int) time.Duration {
	n := def
	if v != "" {
		if iv, err := strconv.Atoi(v); err == nil && iv > 0 {
			n = iv
		}
	}
	return time.Duration(n) * time.Second
}
