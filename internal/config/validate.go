package config

import (
	"fmt"

	"github.com/google/uuid"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.Enabled() && c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}
	if c.Auth.Required && !c.Auth.Enabled() {
		return fmt.Errorf("auth.required needs auth.jwt_secret")
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if !c.Sync.Offline() && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required in online mode")
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database.statement_timeout must be >= 0 (got %s)", c.Database.StatementTimeout)
	}

	if c.Retention.DeletedNotes <= 0 {
		return fmt.Errorf("retention.deleted_notes must be > 0 (got %s)", c.Retention.DeletedNotes)
	}

	return nil
}

func (s *SyncConfig) validate() error {
	switch s.Mode {
	case ModeOnline, ModeOffline:
	default:
		return fmt.Errorf("mode must be %q or %q (got %q)", ModeOnline, ModeOffline, s.Mode)
	}

	id, err := uuid.Parse(s.ProjectIDRaw)
	if err != nil {
		return fmt.Errorf("project_id: %w", err)
	}
	if id == uuid.Nil {
		return fmt.Errorf("project_id must not be the nil uuid")
	}
	s.ProjectID = id

	if s.Offline() && s.StateFile == "" {
		return fmt.Errorf("state_file is required in offline mode")
	}
	if s.MinBackoff <= 0 || s.MaxBackoff < s.MinBackoff {
		return fmt.Errorf("backoff must satisfy 0 < min_backoff <= max_backoff (got %s, %s)", s.MinBackoff, s.MaxBackoff)
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be >= 0 (got %d)", s.HistoryLimit)
	}
	if s.RateLimit <= 0 || s.RateBurst <= 0 {
		return fmt.Errorf("rate_limit and rate_burst must be > 0")
	}

	return nil
}
