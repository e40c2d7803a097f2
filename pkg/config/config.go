package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Database, empty disables the database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis, empty disables the response cache
	RedisURL         string        `mapstructure:"REDIS_URL"`
	ResponseCacheTTL time.Duration `mapstructure:"RESPONSE_CACHE_TTL"`

	// JWT
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Artifacts
	ArtifactBackend string `mapstructure:"ARTIFACT_BACKEND"` // "file", "database", "s3"
	CacheDir        string `mapstructure:"CACHE_DIR"`
	RawDataDir      string `mapstructure:"RAW_DATA_DIR"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Prefix        string `mapstructure:"S3_PREFIX"`
	AWSRegion       string `mapstructure:"AWS_REGION"`

	// Seasons
	Seasons       []int `mapstructure:"-"`
	DefaultSeason int   `mapstructure:"DEFAULT_SEASON"`

	// nflverse
	PlayByPlayURLTemplate   string        `mapstructure:"PBP_URL_TEMPLATE"`
	RosterURLTemplate       string        `mapstructure:"ROSTER_URL_TEMPLATE"`
	PlayerStatsURLTemplate  string        `mapstructure:"PLAYER_STATS_URL_TEMPLATE"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Team logos
	LogoIndexURL          string  `mapstructure:"LOGO_INDEX_URL"`
	LogoDir               string  `mapstructure:"LOGO_DIR"`
	LogoRequestsPerSecond float64 `mapstructure:"LOGO_REQUESTS_PER_SECOND"`

	// Background jobs
	EnableBackgroundJobs bool   `mapstructure:"ENABLE_BACKGROUND_JOBS"`
	WarmSchedule         string `mapstructure:"WARM_SCHEDULE"`

	// Alerts
	AlertProvider    string `mapstructure:"ALERT_PROVIDER"` // "twilio", "mock"
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`
	AlertPhoneNumber string `mapstructure:"ALERT_PHONE_NUMBER"`
}

// DefaultJWTSecret is only accepted outside production
const DefaultJWTSecret = "your-secret-key"

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8050")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("LOG_FORMAT", "")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RESPONSE_CACHE_TTL", "1h")
	viper.SetDefault("JWT_SECRET", DefaultJWTSecret)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:8050")

	viper.SetDefault("ARTIFACT_BACKEND", "file")
	viper.SetDefault("CACHE_DIR", "cache")
	viper.SetDefault("RAW_DATA_DIR", "cache")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_PREFIX", "fpa")
	viper.SetDefault("AWS_REGION", "us-east-1")

	viper.SetDefault("SEASONS", "2021,2020,2019,2018,2017,2016,2015,2014,2013,2012,2011,2010,2009,2008,2007,2006")
	viper.SetDefault("DEFAULT_SEASON", 2021)

	viper.SetDefault("PBP_URL_TEMPLATE", "")
	viper.SetDefault("ROSTER_URL_TEMPLATE", "")
	viper.SetDefault("PLAYER_STATS_URL_TEMPLATE", "")
	viper.SetDefault("EXTERNAL_API_TIMEOUT", "5m") // play-by-play files are large
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 3)

	viper.SetDefault("LOGO_INDEX_URL", "")
	viper.SetDefault("LOGO_DIR", "images/team_logos")
	viper.SetDefault("LOGO_REQUESTS_PER_SECOND", 3.0)

	viper.SetDefault("ENABLE_BACKGROUND_JOBS", false)
	viper.SetDefault("WARM_SCHEDULE", "0 4 * * *")

	viper.SetDefault("ALERT_PROVIDER", "mock")
	viper.SetDefault("TWILIO_ACCOUNT_SID", "")
	viper.SetDefault("TWILIO_AUTH_TOKEN", "")
	viper.SetDefault("TWILIO_FROM_NUMBER", "")
	viper.SetDefault("ALERT_PHONE_NUMBER", "")

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	seasons, err := ParseSeasons(viper.GetString("SEASONS"))
	if err != nil {
		return nil, err
	}
	config.Seasons = seasons

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseSeasons reads a comma-separated season list, newest first
func ParseSeasons(s string) ([]int, error) {
	var seasons []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		season, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid season %q in SEASONS: %w", part, err)
		}
		if !seen[season] {
			seen[season] = true
			seasons = append(seasons, season)
		}
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("SEASONS must list at least one season")
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons, nil
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.ArtifactBackend {
	case "file", "database", "s3":
	default:
		return fmt.Errorf("unknown ARTIFACT_BACKEND %q", c.ArtifactBackend)
	}
	if c.ArtifactBackend == "database" && c.DatabaseURL == "" {
		return fmt.Errorf("ARTIFACT_BACKEND=database requires DATABASE_URL")
	}
	if c.ArtifactBackend == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("ARTIFACT_BACKEND=s3 requires S3_BUCKET")
	}
	if !c.HasSeason(c.DefaultSeason) {
		return fmt.Errorf("DEFAULT_SEASON %d is not in SEASONS", c.DefaultSeason)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}

// HasSeason reports whether season is one of the configured seasons
func (c *Config) HasSeason(season int) bool {
	for _, s := range c.Seasons {
		if s == season {
			return true
		}
	}
	return false
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
