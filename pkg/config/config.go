package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Supabase SupabaseConfig

	Redis RedisConfig

	Mail MailConfig

	PreApproval PreApprovalConfig

	// AllowedOrigins is a comma-separated allowlist of origins allowed to call the API
	// from a browser. Example:
	//   https://housing.example.org,http://localhost:3000
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type SupabaseConfig struct {
	// URL is the project base URL, e.g. https://abcd.supabase.co
	URL     string
	AnonKey string

	// ServiceRoleKey is required for admin identity operations (invite, delete, recovery links).
	// Never expose it to the browser.
	ServiceRoleKey string

	// JWTSecret verifies access tokens locally (HS256).
	JWTSecret string

	StorageBucket string

	// RecoveryRedirect is where invited staff land after following their password link.
	RecoveryRedirect string
}

type RedisConfig struct {
	// Addr empty disables the identity cache.
	Addr        string
	Password    string
	DB          int
	IdentityTTL time.Duration
}

type MailConfig struct {
	Enabled bool
	Region  string
	From    string
}

type PreApprovalConfig struct {
	MinMonthlyIncome string
	// MissingFields is "pass" (absent answers never block) or "review" (absent answers need a human).
	MissingFields string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "housing"),
			User:     env("DB_USER", "housing"),
			Password: env("DB_PASSWORD", "housing"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/"),
			AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
			ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			JWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
			StorageBucket:  env("SUPABASE_STORAGE_BUCKET", "room-images"),

			RecoveryRedirect: os.Getenv("SUPABASE_RECOVERY_REDIRECT_URL"),
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          envInt("REDIS_DB", 0),
			IdentityTTL: envDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		Mail: MailConfig{
			Enabled: envBool("MAIL_ENABLED", false),
			Region:  env("AWS_REGION", "us-east-1"),
			From:    os.Getenv("MAIL_FROM"),
		},
		PreApproval: PreApprovalConfig{
			MinMonthlyIncome: env("PREAPPROVAL_MIN_MONTHLY_INCOME", "800"),
			MissingFields:    env("PREAPPROVAL_MISSING_FIELDS", "pass"),
		},

		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

// SecureCookies reports whether session cookies need the Secure flag.
func (c Config) SecureCookies() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
