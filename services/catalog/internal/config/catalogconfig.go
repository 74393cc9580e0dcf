package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/anilist/internal/platform/config"
	"github.com/example/anilist/internal/platform/docstore"
)

const (
	ProviderIdentityToolkit = "identitytoolkit"
	ProviderLocal           = "local"
)

type IdentityConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	LocalSecret   string
	LocalTokenTTL time.Duration
}

type EventsConfig struct {
	// NATSURL empty disables event publication.
	NATSURL string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CatalogConfig struct {
	Store         docstore.Config
	Identity      IdentityConfig
	Events        EventsConfig
	AuthRateLimit RateLimitConfig
}

func LoadCatalog() (CatalogConfig, error) {
	cfg := CatalogConfig{
		Store: docstore.Config{
			Driver:      strings.ToLower(config.String("STORE_DRIVER", docstore.DriverMemory)),
			MongoURI:    config.String("MONGODB_URI", ""),
			MongoDB:     config.String("MONGODB_DB", "anilist"),
			DatabaseURL: config.String("DATABASE_URL", ""),
			DBMaxConns:  int32(config.Int("DB_MAX_CONNS", 0)),
			DBMinConns:  int32(config.Int("DB_MIN_CONNS", 0)),
			RedisURL:    config.String("REDIS_URL", ""),
			RedisPrefix: config.String("REDIS_KEY_PREFIX", "anilist"),
		},
		Identity: IdentityConfig{
			Provider:      strings.ToLower(config.String("IDENTITY_PROVIDER", ProviderLocal)),
			APIKey:        config.String("IDENTITY_API_KEY", ""),
			BaseURL:       config.String("IDENTITY_BASE_URL", ""),
			Timeout:       config.Duration("IDENTITY_TIMEOUT", 10*time.Second),
			LocalSecret:   config.String("LOCAL_IDENTITY_SECRET", ""),
			LocalTokenTTL: config.Duration("LOCAL_IDENTITY_TOKEN_TTL", time.Hour),
		},
		Events: EventsConfig{
			NATSURL: config.String("NATS_URL", ""),
		},
		AuthRateLimit: RateLimitConfig{
			RPS:   config.Float("AUTH_RATE_LIMIT_RPS", 5),
			Burst: config.Int("AUTH_RATE_LIMIT_BURST", 10),
		},
	}

	switch cfg.Store.Driver {
	case docstore.DriverMemory, docstore.DriverMongo, docstore.DriverPostgres, docstore.DriverRedis:
	default:
		return CatalogConfig{}, fmt.Errorf("STORE_DRIVER %q is not one of memory, mongo, postgres, redis", cfg.Store.Driver)
	}

	switch cfg.Identity.Provider {
	case ProviderIdentityToolkit:
		if cfg.Identity.APIKey == "" {
			return CatalogConfig{}, errors.New("IDENTITY_API_KEY is required for the identitytoolkit provider")
		}
	case ProviderLocal:
		if cfg.Identity.LocalSecret == "" {
			return CatalogConfig{}, errors.New("LOCAL_IDENTITY_SECRET is required for the local provider")
		}
	default:
		return CatalogConfig{}, fmt.Errorf("IDENTITY_PROVIDER %q is not one of identitytoolkit, local", cfg.Identity.Provider)
	}

	if cfg.Store.DBMaxConns > 0 && cfg.Store.DBMinConns > cfg.Store.DBMaxConns {
		return CatalogConfig{}, fmt.Errorf("DB_MIN_CONNS %d exceeds DB_MAX_CONNS %d", cfg.Store.DBMinConns, cfg.Store.DBMaxConns)
	}

	if cfg.AuthRateLimit.Burst < 1 {
		cfg.AuthRateLimit.Burst = 1
	}
	return cfg, nil
}
