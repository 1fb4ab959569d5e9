package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stayfinder/internal/domain"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	FeedURLs    []string
	FeedRPS     int
	Workers     int
	Cache       domain.CacheSettings
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/stayfinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		FeedURLs:    splitList(env("FEED_URLS", "")),
		FeedRPS:     atoi("FEED_RPS", 5),
		Workers:     atoi("SYNC_WORKERS", 8),
		Cache: domain.CacheSettings{
			KeyPrefix: env("CACHE_KEY_PREFIX", "availability"),
			BaseTags:  splitList(env("CACHE_BASE_TAGS", "availability")),
			TagPrefix: env("CACHE_PROPERTY_TAG_PREFIX", "property"),
			TTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 60*60*24)) * time.Second,
		},
	}
	// Settings are validated again per resolution; the early warning just
	// surfaces a bad deployment before the first request does.
	if err := c.Cache.Validate(); err != nil {
		log.Warn().Err(err).Msg("cache settings invalid; availability resolution will fail")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
