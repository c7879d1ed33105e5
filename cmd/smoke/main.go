// README: Smoke and load runner against a deployed API; checks HTTP, websocket, DB and Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	runner := NewRunner(cfg)
	results := runner.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", counts[statusPass], counts[statusFail], counts[statusSkip])

	if counts[statusFail] > 0 || (cfg.Strict && counts[statusSkip] > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	ApplyMigration bool
	Strict         bool
	Live           bool
	Pickup         string
	Drop           string
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("TRANSPORTER_SMOKE_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", envOrDefault("TRANSPORTER_DB_DSN", ""), "Postgres DSN; empty skips DB checks")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("TRANSPORTER_REDIS_ADDR", ""), "Redis address; empty skips Redis checks")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("TRANSPORTER_SMOKE_APPLY_MIGRATION", false), "Create tables before checking them")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("TRANSPORTER_SMOKE_STRICT", false), "Fail on skipped checks")
	flag.BoolVar(&cfg.Live, "live", envOrDefaultBool("TRANSPORTER_SMOKE_LIVE", true), "Run checks that call the maps provider")
	flag.StringVar(&cfg.Pickup, "pickup", envOrDefault("TRANSPORTER_SMOKE_PICKUP", "Andheri West, Mumbai"), "Pickup address for quote checks")
	flag.StringVar(&cfg.Drop, "drop", envOrDefault("TRANSPORTER_SMOKE_DROP", "Bandra Kurla Complex, Mumbai"), "Drop address for quote checks")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("TRANSPORTER_SMOKE_TIMEOUT", 60*time.Second), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("TRANSPORTER_SMOKE_CONCURRENCY", 10), "Concurrency for load checks")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("TRANSPORTER_SMOKE_DURATION", 5*time.Second), "Duration for load checks; 0 skips them")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
