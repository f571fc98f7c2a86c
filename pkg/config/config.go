package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Persistence backends for student records.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Ownership scopes decide who is trusted to restrict listings to the caller's records.
const (
	OwnershipCollaborator = "collaborator"
	OwnershipLocal        = "local"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Students StudentsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	Audience    string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the Redis backed record snapshot and view state caches.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	ViewStateTTL time.Duration
}

// StudentsConfig governs the student records engine and its persistence collaborator.
type StudentsConfig struct {
	Backend             string
	APIURL              string
	APITimeout          time.Duration
	PageSize            int
	OwnershipScope      string
	LenientSingleStatus bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		TokenSecret: v.GetString("AUTH_TOKEN_SECRET"),
		Issuer:      v.GetString("AUTH_TOKEN_ISSUER"),
		Audience:    v.GetString("AUTH_TOKEN_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		TTL:          parseDuration(v.GetString("STUDENTS_CACHE_TTL"), time.Minute),
		ViewStateTTL: parseDuration(v.GetString("STUDENTS_VIEW_STATE_TTL"), 12*time.Hour),
	}

	pageSize := v.GetInt("STUDENTS_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 6
	}
	cfg.Students = StudentsConfig{
		Backend:             strings.ToLower(v.GetString("STUDENTS_BACKEND")),
		APIURL:              strings.TrimRight(v.GetString("STUDENTS_API_URL"), "/"),
		APITimeout:          parseDuration(v.GetString("STUDENTS_API_TIMEOUT"), 10*time.Second),
		PageSize:            pageSize,
		OwnershipScope:      normaliseOwnership(v.GetString("STUDENTS_OWNERSHIP_SCOPE")),
		LenientSingleStatus: v.GetBool("STUDENTS_LENIENT_SINGLE_STATUS"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "students")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_TOKEN_SECRET", "dev_secret")
	v.SetDefault("AUTH_TOKEN_ISSUER", "")
	v.SetDefault("AUTH_TOKEN_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("STUDENTS_CACHE_TTL", "1m")
	v.SetDefault("STUDENTS_VIEW_STATE_TTL", "12h")

	v.SetDefault("STUDENTS_BACKEND", BackendREST)
	v.SetDefault("STUDENTS_API_URL", "http://localhost:3000")
	v.SetDefault("STUDENTS_API_TIMEOUT", "10s")
	v.SetDefault("STUDENTS_PAGE_SIZE", 6)
	v.SetDefault("STUDENTS_OWNERSHIP_SCOPE", OwnershipCollaborator)
	v.SetDefault("STUDENTS_LENIENT_SINGLE_STATUS", false)
}

func normaliseOwnership(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), OwnershipLocal) {
		return OwnershipLocal
	}
	return OwnershipCollaborator
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
