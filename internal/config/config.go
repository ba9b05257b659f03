package config

import (
	"time"

	"github.com/google/uuid"
)

// Sync modes.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Sync      SyncConfig      `yaml:"sync"`
	Retention RetentionConfig `yaml:"retention"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings. DSN is only required
// in online mode.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"notesync"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`

	// StatementTimeout bounds every statement on pooled connections; 0 disables it.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"5s"`
}

// AuthConfig holds bearer-token validation settings. An empty secret
// disables token checks and every request is anonymous.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"notesync"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"24h"`
	// Required rejects requests without a valid token.
	Required bool `yaml:"required" env:"AUTH_REQUIRED" env-default:"false"`
}

// Enabled reports whether bearer tokens are validated.
func (c AuthConfig) Enabled() bool { return c.JWTSecret != "" }

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SyncConfig holds the sync session and change feed settings.
type SyncConfig struct {
	Mode          string        `yaml:"mode"           env:"SYNC_MODE"           env-default:"online"`
	ProjectIDRaw  string        `yaml:"project_id"     env:"SYNC_PROJECT_ID"     env-required:"true"`
	StateFile     string        `yaml:"state_file"     env:"SYNC_STATE_FILE"     env-default:"./data/notesync-state.yaml"`
	Channel       string        `yaml:"channel"        env:"SYNC_CHANNEL"        env-default:"note_changes"`
	MinBackoff    time.Duration `yaml:"min_backoff"    env:"SYNC_MIN_BACKOFF"    env-default:"500ms"`
	MaxBackoff    time.Duration `yaml:"max_backoff"    env:"SYNC_MAX_BACKOFF"    env-default:"30s"`
	HistoryLimit  int           `yaml:"history_limit"  env:"SYNC_HISTORY_LIMIT"  env-default:"200"`
	ResyncTimeout time.Duration `yaml:"resync_timeout" env:"SYNC_RESYNC_TIMEOUT" env-default:"5s"`
	RateLimit     float64       `yaml:"rate_limit"     env:"SYNC_RATE_LIMIT"     env-default:"20"`
	RateBurst     int           `yaml:"rate_burst"     env:"SYNC_RATE_BURST"     env-default:"40"`

	// ProjectID is parsed from ProjectIDRaw during validation.
	ProjectID uuid.UUID `yaml:"-" env:"-"`
}

// Offline reports whether the session runs against the in-memory backend.
func (c SyncConfig) Offline() bool { return c.Mode == ModeOffline }

// RetentionConfig holds cleanup settings for soft-deleted notes.
type RetentionConfig struct {
	DeletedNotes time.Duration `yaml:"deleted_notes" env:"RETENTION_DELETED_NOTES" env-default:"720h"`
}
