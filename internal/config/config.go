package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del cliente y del backend de prueba.
type Config struct {
	APIURL            string        `env:"API_URL" envDefault:"http://localhost:8000"`
	RecaptchaSiteKey  string        `env:"RECAPTCHA_SITE_KEY,required,notEmpty"`
	RecaptchaTokenURL string        `env:"RECAPTCHA_TOKEN_URL" envDefault:"http://localhost:8000/verify/token"`
	RecaptchaTimeout  time.Duration `env:"RECAPTCHA_TIMEOUT" envDefault:"5s"`
	QueryTimeout      time.Duration `env:"QUERY_TIMEOUT" envDefault:"60s"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	SessionNamespace  string        `env:"SESSION_NAMESPACE" envDefault:"styleGuideBot_sessionId"`
	BrowsingContext   string        `env:"BROWSING_CONTEXT"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ErrorDisplay      time.Duration `env:"ERROR_DISPLAY" envDefault:"5s"`
	StubPort          string        `env:"STUB_PORT" envDefault:"8000"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
