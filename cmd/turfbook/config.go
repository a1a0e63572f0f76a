package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL   string
	Addr          string
	AllowedOrigin string

	JWTSecret string
	TokenTTL  time.Duration

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	EmailSender        string

	RedisAddr string

	NearbyRadiusKm float64
	ConflictPolicy string

	LogLevel  string
	LogFormat string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}

	ttl, err := time.ParseDuration(envOrDefault("JWT_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JWT_TTL: %w", err)
	}

	radius, err := strconv.ParseFloat(envOrDefault("NEARBY_RADIUS_KM", "50"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse NEARBY_RADIUS_KM: %w", err)
	}

	return Config{
		DatabaseURL:   dsn,
		Addr:          fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigin: envOrDefault("CORS_ALLOWED_ORIGIN", "*"),

		JWTSecret: secret,
		TokenTTL:  ttl,

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    envOrDefault("CLOUDINARY_FOLDER", "turfbook"),

		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          envOrDefault("AWS_REGION", "us-east-1"),
		EmailSender:        os.Getenv("EMAIL_SENDER"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		NearbyRadiusKm: radius,
		ConflictPolicy: envOrDefault("BOOKING_CONFLICT_POLICY", "allow"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
