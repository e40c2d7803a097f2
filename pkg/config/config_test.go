package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8050", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "file", cfg.ArtifactBackend)
	assert.Equal(t, 2021, cfg.DefaultSeason)
	assert.Len(t, cfg.Seasons, 16)
	assert.Equal(t, 2021, cfg.Seasons[0])
	assert.Equal(t, 2006, cfg.Seasons[15])
	assert.Equal(t, 5*time.Minute, cfg.ExternalAPITimeout)
	assert.Equal(t, time.Hour, cfg.ResponseCacheTTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-production-secret")
	t.Setenv("SEASONS", "2019, 2021,2020,2021")
	t.Setenv("DEFAULT_SEASON", "2020")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []int{2021, 2020, 2019}, cfg.Seasons)
	assert.Equal(t, 2020, cfg.DefaultSeason)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid file backend",
			cfg:  Config{ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2021},
		},
		{
			name:    "unknown backend",
			cfg:     Config{ArtifactBackend: "ftp", Seasons: []int{2021}, DefaultSeason: 2021},
			wantErr: true,
		},
		{
			name:    "database backend without url",
			cfg:     Config{ArtifactBackend: "database", Seasons: []int{2021}, DefaultSeason: 2021},
			wantErr: true,
		},
		{
			name:    "s3 backend without bucket",
			cfg:     Config{ArtifactBackend: "s3", Seasons: []int{2021}, DefaultSeason: 2021},
			wantErr: true,
		},
		{
			name:    "default season not configured",
			cfg:     Config{ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2010},
			wantErr: true,
		},
		{
			name: "default jwt secret in development",
			cfg:  Config{Env: "development", JWTSecret: DefaultJWTSecret, ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2021},
		},
		{
			name:    "default jwt secret in production",
			cfg:     Config{Env: "production", JWTSecret: DefaultJWTSecret, ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2021},
			wantErr: true,
		},
		{
			name:    "empty jwt secret in production",
			cfg:     Config{Env: "production", ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2021},
			wantErr: true,
		},
		{
			name: "custom jwt secret in production",
			cfg:  Config{Env: "production", JWTSecret: "rotated-secret", ArtifactBackend: "file", Seasons: []int{2021}, DefaultSeason: 2021},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseSeasonsRejectsGarbage(t *testing.T) {
	_, err := ParseSeasons("2021,twenty")
	assert.Error(t, err)

	_, err = ParseSeasons(" , ")
	assert.Error(t, err)
}
