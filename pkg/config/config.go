package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const developmentSecret = "insecure-development-secret-key"

type Config struct {
	Port                    string        `env:"PORT" envDefault:"8080"`
	Env                     string        `env:"ENV" envDefault:"development"`
	Domain                  string        `env:"DOMAIN" envDefault:"localhost:8080"`
	SecretKey               string        `env:"SECRET_KEY"`
	PostgresConnStr         string        `env:"POSTGRES_CONN_STR"`
	MongoURI                string        `env:"MONGO_URI"`
	MongoDatabase           string        `env:"MONGO_DATABASE" envDefault:"tracle"`
	MailBackend             string        `env:"MAIL_BACKEND" envDefault:"log"`
	MailFrom                string        `env:"MAIL_FROM" envDefault:"TRACLE <no-reply@tracle.local>"`
	FirebaseCredentialsPath string        `env:"FIREBASE_CREDENTIALS_PATH"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat               string        `env:"LOG_FORMAT" envDefault:"text"`
	SessionTTL              time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	TokenTTL                time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if c.SecretKey == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("SECRET_KEY environment variable not set")
		}
		c.SecretKey = developmentSecret
	}
	switch c.MailBackend {
	case "log":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MAIL_BACKEND=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("unknown MAIL_BACKEND %q", c.MailBackend)
	}
	return nil
}
