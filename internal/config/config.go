package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/constants"
)

type Application struct {
	Env          string        `mapstructure:"env"           json:"env"`
	Host         string        `mapstructure:"host"          json:"host"`
	CookieName   string        `mapstructure:"cookie_name"   json:"cookie_name"`
	TimeZone     string        `mapstructure:"timezone"      json:"timezone"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"   json:"session_ttl"`
	Port         int           `mapstructure:"port"          json:"port"`
	CookieSecure bool          `mapstructure:"cookie_secure" json:"cookie_secure"`
}

type Backend struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"  json:"timeout"`
}

type Cache struct {
	Host       string        `mapstructure:"host"        json:"host"`
	Password   string        `mapstructure:"password"    json:"-"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl" json:"catalog_ttl"`
	Database   int           `mapstructure:"database"    json:"database"`
	Port       uint16        `mapstructure:"port"        json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Sync struct {
	Interval      time.Duration `mapstructure:"interval"        json:"interval"`
	BaseBackoff   time.Duration `mapstructure:"base_backoff"    json:"base_backoff"`
	MaxAttempts   int           `mapstructure:"max_attempts"    json:"max_attempts"`
	RatePerSecond float64       `mapstructure:"rate_per_second" json:"rate_per_second"`
	BatchSize     int           `mapstructure:"batch_size"      json:"batch_size"`
}

type Payment struct {
	KeyID          string        `mapstructure:"key_id"          json:"key_id"`
	KeySecret      string        `mapstructure:"key_secret"      json:"-"`
	Currency       string        `mapstructure:"currency"        json:"currency"`
	SimulatedDelay time.Duration `mapstructure:"simulated_delay" json:"simulated_delay"`
}

type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst"               json:"burst"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Backend     `mapstructure:"backend"     json:"backend"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Sync        `mapstructure:"sync"        json:"sync"`
	Payment     `mapstructure:"payment"     json:"payment"`
	RateLimit   `mapstructure:"ratelimit"   json:"ratelimit"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.cookie_name", "sid")
	v.SetDefault("application.timezone", "Asia/Kolkata")
	v.SetDefault("application.session_ttl", 7*24*time.Hour)
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.catalog_ttl", 5*time.Minute)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("sync.interval", 2*time.Second)
	v.SetDefault("sync.base_backoff", time.Second)
	v.SetDefault("sync.max_attempts", 5)
	v.SetDefault("sync.rate_per_second", 20)
	v.SetDefault("sync.batch_size", 50)
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.simulated_delay", 2*time.Second)
	v.SetDefault("ratelimit.requests_per_second", 10)
	v.SetDefault("ratelimit.burst", 20)
}

func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(constants.KEY_TAG, "config Get").
			Str(constants.KEY_PROCESS, "init config").
			Str("filename", filename).
			Logger()

		v := viper.New()
		v.SetConfigName(filename)
		v.AddConfigPath("./env")
		v.SetConfigType("yaml")
		v.AutomaticEnv()
		setDefaults(v)

		logger = logger.With().Str(constants.KEY_PROCESS, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := v.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(constants.KEY_PROCESS, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = v.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(constants.KEY_CONFIG, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}

func (a Application) Location() *time.Location {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
