package config

// RateLimitConfig содержит ограничения частоты запросов на владельца.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"NOTES_RATE_LIMIT_RPS" env-default:"10"`
	Burst int     `yaml:"burst" env:"NOTES_RATE_LIMIT_BURST" env-default:"20"`
}

// Enabled сообщает, включено ли ограничение.
func (c *RateLimitConfig) Enabled() bool {
	return c.RPS > 0 && c.Burst > 0
}
