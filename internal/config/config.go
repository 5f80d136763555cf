// Package config loads tombola settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Mail   MailConfig
	SMS    SMSConfig
}

// ServerConfig holds settings for the HTTP API and game storage.
type ServerConfig struct {
	Addr         string        `env:"TOMBOLA_ADDR" envDefault:":8080"`
	GamesDir     string        `env:"TOMBOLA_GAMES_DIR" envDefault:"games"`
	HistoryDB    string        `env:"TOMBOLA_HISTORY_DB"`
	SessionTTL   time.Duration `env:"TOMBOLA_SESSION_TTL" envDefault:"1h"`
	DrawAttempts int           `env:"TOMBOLA_DRAW_ATTEMPTS" envDefault:"100"`
}

// MailConfig holds the SMTP transport and the defaults merged into every
// message.
type MailConfig struct {
	From     string `env:"TOMBOLA_MAIL_FROM"`
	Bcc      string `env:"TOMBOLA_MAIL_BCC"`
	Host     string `env:"TOMBOLA_SMTP_HOST"`
	Port     int    `env:"TOMBOLA_SMTP_PORT" envDefault:"587"`
	Username string `env:"TOMBOLA_SMTP_USERNAME"`
	Password string `env:"TOMBOLA_SMTP_PASSWORD"`
}

// SMSConfig holds the SMS gateway settings.
type SMSConfig struct {
	Hostname string `env:"TOMBOLA_SMS_HOSTNAME"`
	Port     int    `env:"TOMBOLA_SMS_PORT" envDefault:"443"`
	Password string `env:"TOMBOLA_SMS_PASSWORD"`
	// Insecure skips TLS verification, for gateways on a LAN with a
	// self-signed certificate.
	Insecure bool `env:"TOMBOLA_SMS_INSECURE" envDefault:"false"`
}

// Load reads the optional .env file given (or ".env" when empty), then the
// environment. A missing .env file is not an error.
func Load(dotenv string) (*Config, error) {
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenv, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.GamesDir == "" {
		errs = append(errs, errors.New("TOMBOLA_GAMES_DIR is required"))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, errors.New("TOMBOLA_SESSION_TTL must be positive"))
	}
	if c.Server.DrawAttempts < 1 {
		errs = append(errs, errors.New("TOMBOLA_DRAW_ATTEMPTS must be at least 1"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateMail checks the settings needed to actually send emails.
func (c *Config) ValidateMail() error {
	var errs []error
	if c.Mail.Host == "" {
		errs = append(errs, errors.New("TOMBOLA_SMTP_HOST is required"))
	}
	if c.Mail.Port <= 0 {
		errs = append(errs, fmt.Errorf("TOMBOLA_SMTP_PORT must be positive, got %d", c.Mail.Port))
	}
	if c.Mail.From == "" {
		errs = append(errs, errors.New("TOMBOLA_MAIL_FROM is required"))
	}
	return errors.Join(errs...)
}

// ValidateSMS checks the settings needed to actually send text messages.
func (c *Config) ValidateSMS() error {
	var errs []error
	if c.SMS.Hostname == "" {
		errs = append(errs, errors.New("TOMBOLA_SMS_HOSTNAME is required"))
	}
	if c.SMS.Port <= 0 {
		errs = append(errs, fmt.Errorf("TOMBOLA_SMS_PORT must be positive, got %d", c.SMS.Port))
	}
	return errors.Join(errs...)
}
