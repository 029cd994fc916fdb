package config

import "time"

// AIConfig содержит настройки провайдера кратких содержаний.
type AIConfig struct {
	APIKey      string        `yaml:"api_key" env:"NOTES_AI_API_KEY" env-default:""`
	BaseURL     string        `yaml:"base_url" env:"NOTES_AI_BASE_URL" env-default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model       string        `yaml:"model" env:"NOTES_AI_MODEL" env-default:"gemini-2.0-flash"`
	Timeout     time.Duration `yaml:"timeout" env:"NOTES_AI_TIMEOUT" env-default:"30s"`
	Temperature float64       `yaml:"temperature" env:"NOTES_AI_TEMPERATURE" env-default:"0.3"`
	SummaryTTL  time.Duration `yaml:"summary_ttl" env:"NOTES_AI_SUMMARY_TTL" env-default:"1h"`
}

// Enabled сообщает, задан ли ключ провайдера.
func (c *AIConfig) Enabled() bool {
	return c.APIKey != ""
}
