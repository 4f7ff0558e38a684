package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	RedisAddr   string

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// AttendBucket holds captured attendance photos, ProfileBucket the
	// reference profile photos.
	AttendBucket  string
	ProfileBucket string

	QueueBackend    string
	VerifyAsync     bool
	RateLimitPerMin int

	// DedupWindow suppresses duplicate attendance rows for the same profile
	// within the window. Zero disables the guard.
	DedupWindow time.Duration
}

// Load returns application config populated from the environment. A .env file
// in the working directory is honored when present. A missing required
// variable is a startup fault, not a per-request one.
func Load() (App, error) {
	_ = godotenv.Load()

	cfg := App{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "8081"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		JWTIssuer:          getEnv("JWT_ISSUER", "faceattend"),
		JWTSigningKey:      getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:          durationEnv("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:         durationEnv("REFRESH_TTL", 24*time.Hour),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AttendBucket:       os.Getenv("ATTEND_BUCKET"),
		ProfileBucket:      os.Getenv("PROFILE_BUCKET"),
		QueueBackend:       getEnv("QUEUE_BACKEND", "redis"),
		VerifyAsync:        boolEnv("VERIFY_ASYNC", false),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
		DedupWindow:        durationEnv("DEDUP_WINDOW", 0),
	}

	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"AWS_REGION", cfg.AWSRegion},
		{"ATTEND_BUCKET", cfg.AttendBucket},
		{"PROFILE_BUCKET", cfg.ProfileBucket},
	} {
		if req.val == "" {
			return App{}, fmt.Errorf("config: %s is required", req.key)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
