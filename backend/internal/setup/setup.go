package setup

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerdesk/ledgerdesk/backend/internal/cache"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/handler"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/notify"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/render"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/service"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/storage/pg"
	"github.com/ledgerdesk/ledgerdesk/shared/config"
	"github.com/ledgerdesk/ledgerdesk/shared/jwt"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
	mw "github.com/ledgerdesk/ledgerdesk/shared/middleware"
	"github.com/ledgerdesk/ledgerdesk/shared/middleware/ratelimiter"
	"github.com/ledgerdesk/ledgerdesk/shared/storage/rdb"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Redis          *redis.Client // nil when no redis url is configured
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	MessageLimiter *ratelimiter.Limiter
	Jwt            jwt.JwtService
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := service.Deps{
		Store: storage,
		Limits: service.Limits{
			MaxMessageLength: cfg.Public.MaxMessageLength,
			MaxNoteLength:    cfg.Public.MaxNoteLength,
			MaxFileRefLength: cfg.Public.MaxFileRefLength,
		},
	}

	var redisClient *redis.Client
	if cfg.Private.RedisURL != "" {
		redisClient, err = rdb.Connect(ctx, cfg.Private.RedisURL)
		if err != nil {
			storage.Cleanup()
			return nil, err
		}
		deps.Cache = cache.NewUnread(redisClient, cfg.UnreadCacheTTL())
		deps.Notifier = notify.NewStream(redisClient, cfg.Public.NotificationStream, cfg.Public.NotificationStreamLen)
		logger.Log.Info("redis enabled", "stream", cfg.Public.NotificationStream)
	} else {
		deps.Notifier = notify.NewLog()
		logger.Log.Warn("redis url not set, unread cache disabled and notifications only logged")
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	h := handler.New(
		service.NewDocument(deps),
		service.NewMessage(deps),
		service.NewSupersession(deps),
		service.NewTenancy(deps),
		storage,
		render.New(),
	)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Redis:          redisClient,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwtService),
		MessageLimiter: ratelimiter.New(cfg.Public.MessageRatePerSecond, cfg.Public.MessageRateBurst, time.Hour),
		Jwt:            jwtService,
	}, nil
}

// Close releases connections and limiter timers.
func (d *Dependencies) Close() error {
	d.MessageLimiter.Stop()
	var errs []error
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	errs = append(errs, d.Storage.Cleanup())
	return errors.Join(errs...)
}
