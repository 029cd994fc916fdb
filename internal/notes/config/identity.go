package config

import "time"

// IdentityConfig содержит настройки cookie владельца заметок.
type IdentityConfig struct {
	Secret     string        `yaml:"secret" env:"NOTES_IDENTITY_SECRET" env-default:"change-me-notes-identity-secret"`
	CookieName string        `yaml:"cookie_name" env:"NOTES_IDENTITY_COOKIE" env-default:"notes_user_id"`
	MaxAge     time.Duration `yaml:"max_age" env:"NOTES_IDENTITY_MAX_AGE" env-default:"720h"`
	Secure     bool          `yaml:"secure" env:"NOTES_IDENTITY_SECURE" env-default:"false"`
}
