package mailer

import "github.com/caarlos0/env/v11"

// Config holds mailer configuration.
// Embed it in an app config for env parsing, or use LoadConfig directly.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	HTMLLayout      string `env:"MAILER_HTML_LAYOUT"`
	TextLayout      string `env:"MAILER_TEXT_LAYOUT"`
	ViewPath        string `env:"MAILER_VIEW_PATH" envDefault:"."`
}

// LoadConfig parses Config from environment variables.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
