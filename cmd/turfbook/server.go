package main

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"turfbook/internal/app/bookings"
	"turfbook/internal/app/users"
	"turfbook/internal/app/venues"
	"turfbook/internal/geocode"
	"turfbook/internal/httpapi"
	"turfbook/internal/imagestore"
	"turfbook/internal/middleware"
	"turfbook/internal/notify"
	"turfbook/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) http.Handler {
	geocoder := geocode.NewClient(newRedisClient(cfg))

	userSvc := users.New(dataStore, cfg.JWTSecret, cfg.TokenTTL)
	venueSvc := venues.New(dataStore, newImageStore(cfg), geocoder, cfg.NearbyRadiusKm)
	bookingSvc := bookings.New(dataStore, newDispatcher(cfg), bookings.ParsePolicy(cfg.ConflictPolicy))

	handler := httpapi.New(userSvc, venueSvc, bookingSvc, cfg.JWTSecret).Routes()
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}

func newImageStore(cfg Config) venues.ImageStore {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		log.Info().Msg("Cloudinary credentials not provided, venue image uploads disabled")
		return imagestore.Disabled{}
	}
	c, err := imagestore.NewClient(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.CloudinaryFolder,
	)
	if err != nil {
		log.Warn().Err(err).Msg("image store unavailable, venue image uploads disabled")
		return imagestore.Disabled{}
	}
	return c
}

// newRedisClient returns nil when no address is configured; geocode lookups
// then skip the cache.
func newRedisClient(cfg Config) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set, geocode caching disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func newDispatcher(cfg Config) notify.Dispatcher {
	if cfg.AWSAccessKeyID == "" || cfg.AWSSecretAccessKey == "" || cfg.EmailSender == "" {
		log.Info().Msg("SES credentials not provided, booking emails disabled")
		return notify.Disabled{}
	}
	d, err := notify.NewSESDispatcher(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.EmailSender)
	if err != nil {
		log.Warn().Err(err).Msg("SES dispatcher unavailable, booking emails disabled")
		return notify.Disabled{}
	}
	return d
}
