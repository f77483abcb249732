package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/basit/forumfiles-backend/internal/logger"
)

// Config holds every runtime setting. All values come from the environment;
// a .env file is loaded first when present.
type Config struct {
	Server struct {
		Port string
		Env  string // "development" or "production"
	}

	Database struct {
		DSN string
	}

	JWT struct {
		Secret string
		TTL    time.Duration
	}

	Upload struct {
		MaxSize      int64    // authoritative limit in bytes
		AllowedTypes []string // MIME allow-list
	}

	Storage struct {
		Type     string // "local" or "s3"
		BasePath string // local backend root
		Bucket   string // s3 backend bucket
		Region   string
	}

	Email struct {
		SMTPHost  string
		SMTPPort  int
		Username  string
		Password  string
		FromEmail string
		FromName  string
		UseTLS    bool
	}

	OAuth struct {
		SessionSecret     string
		GoogleClientID    string
		GoogleSecret      string
		GoogleRedirectURL string
	}

	RateLimit struct {
		GeneralPerMinute int           // all requests per IP
		AuthPerMinute    int           // login/register attempts per IP
		RedeemPerMinute  int           // public link redemptions per IP
		CodeCooldown     time.Duration // min gap between verification codes per email
	}

	FrontendURL string // base for public link URLs
}

// DefaultAllowedTypes mirrors the upload allow-list: documents, images,
// archives, plain text and common audio/video containers.
var DefaultAllowedTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain", "text/csv",
	"application/zip", "application/x-rar-compressed",
	"application/x-7z-compressed", "application/x-tar", "application/gzip",
	"audio/mpeg", "audio/wav",
	"video/mp4", "video/mpeg", "video/quicktime",
}

// Load reads the environment into a Config. Only the database DSN and the JWT
// secret are mandatory; everything else has a workable default.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment")
	}

	cfg := &Config{}

	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.Env = getEnv("SERVER_ENV", "development")

	cfg.Database.DSN = os.Getenv("DB_URL")

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = getDuration("JWT_TTL", 7*24*time.Hour)

	cfg.Upload.MaxSize = getInt64("MAX_FILE_SIZE", 100*1024*1024)
	cfg.Upload.AllowedTypes = DefaultAllowedTypes
	if v := os.Getenv("ALLOWED_MIME_TYPES"); v != "" {
		cfg.Upload.AllowedTypes = strings.Split(v, ",")
	}

	cfg.Storage.Type = getEnv("STORAGE_TYPE", "local")
	cfg.Storage.BasePath = getEnv("UPLOAD_DIR", "./uploads")
	cfg.Storage.Bucket = os.Getenv("AWS_BUCKET_NAME")
	cfg.Storage.Region = os.Getenv("AWS_REGION")

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort = getInt("SMTP_PORT", 587)
	cfg.Email.Username = os.Getenv("SMTP_USER")
	cfg.Email.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = getEnv("SMTP_FROM", "noreply@forumfiles.local")
	cfg.Email.FromName = getEnv("SMTP_FROM_NAME", "Forum Files")
	cfg.Email.UseTLS = getEnv("SMTP_TLS", "true") == "true"

	cfg.OAuth.SessionSecret = os.Getenv("SESSION_SECRET")
	cfg.OAuth.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.OAuth.GoogleSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.OAuth.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")

	cfg.RateLimit.GeneralPerMinute = getInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimit.AuthPerMinute = getInt("RATE_LIMIT_AUTH", 5)
	cfg.RateLimit.RedeemPerMinute = getInt("RATE_LIMIT_REDEEM", 10)
	cfg.RateLimit.CodeCooldown = getDuration("CODE_COOLDOWN", time.Minute)

	cfg.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:5173")

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
