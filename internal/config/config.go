package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host           string
		Port           string
		AllowedOrigins []string
	}

	Auth AuthConfig

	Storage StorageConfig

	Chat struct {
		RequireMatch   bool
		IdempotencyTTL time.Duration
		SendLease      time.Duration
	}

	Feed struct {
		PageSize int
	}

	Reconcile struct {
		Interval time.Duration
	}
}

// LogConfig is kept as a named type so the logger package (and its tests)
// can build one without restating the field list.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	Issuer             string
	AllowedEmailDomain string
	MinPasswordLength  int
}

type StorageConfig struct {
	Driver        string
	LocalPath     string
	PublicBaseURL string
	MaxImageBytes int64
	S3            S3Config
}

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicURL       string
}

var defaults = map[string]any{
	"app.env": "development",

	"log.level":     "info",
	"log.format":    "text",
	"log.component": "campus_connect",

	"db.driver":   "mysql",
	"db.host":     "localhost",
	"db.user":     "root",
	"db.password": "root",
	"db.name":     "campus_connect",
	"db.sslmode":  "disable",

	"redis.addr": "localhost:6379",
	"redis.db":   0,

	"grpc.host": "127.0.0.1",
	"grpc.port": "50051",

	"http.host":            "127.0.0.1",
	"http.port":            "8080",
	"http.allowed_origins": "*",

	"auth.jwt_secret":           "change-me-in-production",
	"auth.token_ttl":            "24h",
	"auth.issuer":               "campus-connect",
	"auth.allowed_email_domain": "iiti.ac.in",
	"auth.min_password_length":  8,

	"storage.driver":          "local",
	"storage.local_path":      "./data/media",
	"storage.public_base_url": "http://127.0.0.1:8080/media",
	"storage.max_image_bytes": 5 << 20,
	"storage.s3.region":       "us-east-1",
	"storage.s3.bucket":       "profiles",

	"chat.require_match":   "true",
	"chat.idempotency_ttl": "24h",
	"chat.send_lease":      "30s",
	"feed.page_size":       20,
	"reconcile.interval":   "5m",
}

// New builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file and the process environment (highest precedence).
// Keys map to env vars by upper-casing and replacing "." with "_".
func New() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: failed to load .env: %v", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("config: failed to read %s: %v", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.App.ENV = getString(v, "app.env")

	// Logger
	cfg.Log.Level = getString(v, "log.level")
	cfg.Log.Format = getString(v, "log.format")
	cfg.Log.Component = getString(v, "log.component")
	cfg.Log.Source = isTruthy(v.GetString("log.source"))

	// Database
	cfg.DB.Driver = strings.ToLower(getString(v, "db.driver"))
	cfg.DB.Host = getString(v, "db.host")
	cfg.DB.User = getString(v, "db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.Name = getString(v, "db.name")
	cfg.DB.SSLMode = getString(v, "db.sslmode")
	cfg.DB.Port = getString(v, "db.port")
	if cfg.DB.Port == "" {
		cfg.DB.Port = defaultPort(cfg.DB.Driver)
	}
	cfg.DB.DSN = getString(v, "db.dsn")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = getString(v, "redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	// gRPC + HTTP
	cfg.GRPC.Host = getString(v, "grpc.host")
	cfg.GRPC.Port = getString(v, "grpc.port")
	cfg.HTTP.Host = getString(v, "http.host")
	cfg.HTTP.Port = getString(v, "http.port")
	cfg.HTTP.AllowedOrigins = splitList(v.GetString("http.allowed_origins"))

	// Auth
	cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	cfg.Auth.TokenTTL = v.GetDuration("auth.token_ttl")
	cfg.Auth.Issuer = getString(v, "auth.issuer")
	cfg.Auth.AllowedEmailDomain = strings.ToLower(strings.TrimPrefix(getString(v, "auth.allowed_email_domain"), "@"))
	cfg.Auth.MinPasswordLength = v.GetInt("auth.min_password_length")

	// Object storage
	cfg.Storage.Driver = strings.ToLower(getString(v, "storage.driver"))
	cfg.Storage.LocalPath = getString(v, "storage.local_path")
	cfg.Storage.PublicBaseURL = strings.TrimRight(getString(v, "storage.public_base_url"), "/")
	cfg.Storage.MaxImageBytes = v.GetInt64("storage.max_image_bytes")
	cfg.Storage.S3.Endpoint = getString(v, "storage.s3.endpoint")
	cfg.Storage.S3.Region = getString(v, "storage.s3.region")
	cfg.Storage.S3.Bucket = getString(v, "storage.s3.bucket")
	cfg.Storage.S3.AccessKeyID = getString(v, "storage.s3.access_key_id")
	cfg.Storage.S3.SecretAccessKey = v.GetString("storage.s3.secret_access_key")
	cfg.Storage.S3.UsePathStyle = isTruthy(v.GetString("storage.s3.use_path_style"))
	cfg.Storage.S3.PublicURL = strings.TrimRight(getString(v, "storage.s3.public_url"), "/")

	// Chat, feed, reconciliation
	cfg.Chat.RequireMatch = isTruthy(v.GetString("chat.require_match"))
	cfg.Chat.IdempotencyTTL = v.GetDuration("chat.idempotency_ttl")
	cfg.Chat.SendLease = v.GetDuration("chat.send_lease")
	cfg.Feed.PageSize = v.GetInt("feed.page_size")
	cfg.Reconcile.Interval = v.GetDuration("reconcile.interval")

	return cfg
}

func buildDSN(cfg *Config) string {
	switch cfg.DB.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
		)
	case "sqlite":
		return cfg.DB.Name + ".db"
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
}

func defaultPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func getString(v *viper.Viper, k string) string {
	return strings.TrimSpace(v.GetString(k))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
