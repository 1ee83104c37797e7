package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	hoursPerDay   = 24
	defaultMinInt = 1
)

// Config is the process configuration. Every numeric knob has a default;
// unparseable or out-of-range overrides are ignored and reported in Warnings.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"thriftpulse.db"`
	SourcesFile string `env:"SOURCES_FILE"`

	// Price sampling
	PriceMaxPages  int `env:"PRICE_MAX_PAGES" envDefault:"3"`
	PriceSampleCap int `env:"PRICE_SAMPLE_CAP" envDefault:"180"`
	PriceFallback  int `env:"PRICE_FALLBACK" envDefault:"0" min:"0"`

	// Candidate pool
	BucketCap       int `env:"BUCKET_CAP" envDefault:"3"`
	MaxNewSignals   int `env:"MAX_NEW_SIGNALS" envDefault:"40"`
	RejectionLogCap int `env:"REJECTION_LOG_CAP" envDefault:"200" min:"0"`
	FeedMaxAgeDays  int `env:"FEED_MAX_AGE_DAYS" envDefault:"14"`

	// Style profiles
	StyleProfileTTLDays   int           `env:"STYLE_PROFILE_TTL_DAYS" envDefault:"14"`
	StyleProfileMaxPerRun int           `env:"STYLE_PROFILE_MAX_PER_RUN" envDefault:"12" min:"0"`
	StyleProfileCooldown  time.Duration `env:"STYLE_PROFILE_COOLDOWN" envDefault:"45s"`
	StyleProfileModel     string        `env:"STYLE_PROFILE_MODEL"`

	// LLM
	TrendClassifierModel string        `env:"TREND_CLASSIFIER_MODEL" envDefault:"gpt-4o-mini"`
	AIRatingEnabled      bool          `env:"AI_RATING_ENABLED" envDefault:"true"`
	AICorpusEnabled      bool          `env:"AI_CORPUS_ENABLED" envDefault:"true"`
	AICorpusTerms        int           `env:"AI_CORPUS_TERMS" envDefault:"25"`
	AIRetries            int           `env:"AI_RETRIES" envDefault:"2" min:"0"`
	AITimeout            time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
	AIRPS                float64       `env:"AI_RPS" envDefault:"2"`
	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string        `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey      string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel       string        `env:"ANTHROPIC_MODEL"`

	// Fetch
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"20s"`
	FetchRetries   int           `env:"FETCH_RETRIES" envDefault:"1" min:"0"`
	FetchRPS       float64       `env:"FETCH_RPS" envDefault:"2"`
	FetchUserAgent string        `env:"FETCH_USER_AGENT"`

	// Serve mode
	RunSchedule string `env:"RUN_SCHEDULE" envDefault:"@every 6h"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Tracing
	OTLPEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure      bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	TracingSampleRate float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`

	// Warnings lists overrides that were ignored.
	Warnings []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return LoadFrom(environMap(os.Environ()))
}

// LoadFrom parses cfg from an explicit environment map.
func LoadFrom(environ map[string]string) (*Config, error) {
	warnings := sanitize(environ)

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Warnings = warnings

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
	default:
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("STORE_DRIVER=%q unknown, using %s", cfg.StoreDriver, DriverSQLite))
		cfg.StoreDriver = DriverSQLite
	}

	if cfg.StoreDriver == DriverPostgres && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("parse config: POSTGRES_DSN is required when STORE_DRIVER=%s", DriverPostgres)
	}

	if cfg.StyleProfileModel == "" {
		cfg.StyleProfileModel = cfg.TrendClassifierModel
	}

	if cfg.TracingSampleRate > 1 {
		cfg.TracingSampleRate = 1
	}

	return cfg, nil
}

// FeedMaxAge is FEED_MAX_AGE_DAYS as a duration.
func (c *Config) FeedMaxAge() time.Duration {
	return time.Duration(c.FeedMaxAgeDays*hoursPerDay) * time.Hour
}

// AIEnabled reports whether any LLM provider is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicAPIKey != ""
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}

	return out
}

var durationType = reflect.TypeOf(time.Duration(0))

// sanitize drops overrides that would fail to parse or fall out of range so
// the envDefault applies instead.
func sanitize(environ map[string]string) []string {
	var warnings []string

	t := reflect.TypeOf(Config{})

	for i := range t.NumField() {
		f := t.Field(i)

		key, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if key == "" || key == "-" {
			continue
		}

		raw, ok := environ[key]
		if !ok {
			continue
		}

		val := strings.TrimSpace(raw)
		if val == "" {
			delete(environ, key)
			continue
		}

		if validValue(f, val) {
			environ[key] = val
			continue
		}

		delete(environ, key)
		warnings = append(warnings, fmt.Sprintf("%s=%q invalid, using default %q", key, raw, f.Tag.Get("envDefault")))
	}

	return warnings
}

func validValue(f reflect.StructField, val string) bool {
	if f.Type == durationType {
		d, err := time.ParseDuration(val)
		return err == nil && d > 0
	}

	switch f.Type.Kind() {
	case reflect.Int:
		n, err := strconv.Atoi(val)
		return err == nil && n >= minInt(f)
	case reflect.Float64:
		x, err := strconv.ParseFloat(val, 64)
		return err == nil && x > 0
	case reflect.Bool:
		_, err := strconv.ParseBool(val)
		return err == nil
	default:
		return true
	}
}

func minInt(f reflect.StructField) int {
	if s := f.Tag.Get("min"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}

	return defaultMinInt
}
