package app

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/pipeline"
	"github.com/stitts-dev/fpa-dashboard/internal/providers"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/internal/store"
	"github.com/stitts-dev/fpa-dashboard/internal/websocket"
	"github.com/stitts-dev/fpa-dashboard/pkg/config"
	"github.com/stitts-dev/fpa-dashboard/pkg/database"
)

// App holds every long lived dependency of the server and the CLI
type App struct {
	Config     *config.Config
	Logger     *logrus.Logger
	DB         *database.DB // nil without DATABASE_URL
	Store      store.ArtifactStore
	Cache      nfl.CacheProvider
	Hub        *websocket.Hub
	Breakers   *services.CircuitBreakerService
	Allowances *services.AllowanceService
	Runs       services.RunRecorder // nil without a database
	Warmer     *services.Warmer
	Logos      *services.LogoService

	redis *redis.Client
}

// New connects to the configured backends and wires the services together
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.DatabaseURL != "" {
		db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		a.DB = db
		a.Runs = services.NewRefreshRunRepository(db)
	}

	artifacts, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = artifacts

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		a.redis = redis.NewClient(opt)
		cache := services.NewCacheService(a.redis)
		if err := cache.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.Cache = cache
	} else {
		a.Cache = services.NewMemoryCache()
	}

	a.Hub = websocket.NewHub(cfg.CorsOrigins, logger)
	a.Breakers = services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, time.Minute, logger)

	source := providers.NewNFLVerseClient(providers.NFLVerseConfig{
		PlayByPlayURLTemplate:  cfg.PlayByPlayURLTemplate,
		RosterURLTemplate:      cfg.RosterURLTemplate,
		PlayerStatsURLTemplate: cfg.PlayerStatsURLTemplate,
		RawDataDir:             cfg.RawDataDir,
		Timeout:                cfg.ExternalAPITimeout,
	}, a.Breakers, logger)
	builder := pipeline.NewBuilder(source, logger)
	a.Allowances = services.NewAllowanceService(a.Store, builder, a.Cache, a.Hub, logger)

	alerter, err := a.newAlerter()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Warmer = services.NewWarmer(a.Allowances, a.Runs, alerter, cfg.Seasons, cfg.WarmSchedule, logger)

	logoClient := providers.NewLogoClient(cfg.LogoIndexURL, cfg.LogoRequestsPerSecond, a.Breakers, logger)
	a.Logos = services.NewLogoService(logoClient, cfg.LogoDir, logger)

	return a, nil
}

func (a *App) newStore(ctx context.Context) (store.ArtifactStore, error) {
	switch a.Config.ArtifactBackend {
	case "database":
		if a.DB == nil {
			return nil, fmt.Errorf("database artifact backend requires DATABASE_URL")
		}
		return store.NewDBStore(a.DB.DB, a.Logger), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.Config.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return store.NewS3Store(s3.NewFromConfig(awsCfg), a.Config.S3Bucket, a.Config.S3Prefix, a.Logger), nil
	default:
		return store.NewFileStore(a.Config.CacheDir, a.Logger)
	}
}

func (a *App) newAlerter() (services.Alerter, error) {
	if a.Config.AlertProvider != "twilio" {
		return services.NewMockAlerter(a.Logger), nil
	}
	return services.NewTwilioAlerter(
		a.Config.TwilioAccountSID,
		a.Config.TwilioAuthToken,
		a.Config.TwilioFromNumber,
		a.Config.AlertPhoneNumber,
		a.Logger,
	)
}

// Close releases database and redis connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close database")
		}
	}
}
