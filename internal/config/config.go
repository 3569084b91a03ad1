package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport kinds.
const (
	TransportLocal   = "local"
	TransportGraphQL = "graphql"
)

// User store kinds for the local transport.
const (
	UserStoreFile    = "file"
	UserStoreSurreal = "surreal"
)

// Provider exposes configuration to the rest of the application.
type Provider interface {
	GetAppAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetPostLoginRedirect() string
	GetWidgetIdleTTL() time.Duration
	GetWidgetMaxLive() int
	GetTransport() string
	GetGraphQLURL() string
	GetUserStore() string
	GetUsersFile() string
	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetEmailProvider() string
	GetEmailAPIKey() string
	GetEmailSender() string
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr           string        `env:"APP_ADDR" envDefault:":8080"`
	AppBaseURL        string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	PostLoginRedirect string        `env:"POST_LOGIN_REDIRECT" envDefault:"/"`
	WidgetIdleTTL     time.Duration `env:"WIDGET_IDLE_TTL" envDefault:"30m"`
	WidgetMaxLive     int           `env:"WIDGET_MAX_LIVE" envDefault:"10000"`

	Transport  string `env:"TRANSPORT" envDefault:"local"`
	GraphQLURL string `env:"GRAPHQL_URL"`

	UserStore string `env:"USER_STORE" envDefault:"file"`
	UsersFile string `env:"USERS_FILE" envDefault:"data/users.json"`

	DBUrl  string `env:"SURREAL_URL"`
	DBNs   string `env:"SURREAL_NS"`
	DBDb   string `env:"SURREAL_DB"`
	DBUser string `env:"SURREAL_USER"`
	DBPass string `env:"SURREAL_PASS"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailAPIKey   string `env:"EMAIL_API_KEY"`
	EmailSender   string `env:"EMAIL_SENDER"`
}

// New loads configuration from a .env file (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv parses the current environment without touching .env files.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	switch c.Transport {
	case TransportLocal:
		switch c.UserStore {
		case UserStoreFile:
			if c.UsersFile == "" {
				errs = append(errs, errors.New("USERS_FILE is required for the file user store"))
			}
		case UserStoreSurreal:
			if c.DBUrl == "" || c.DBNs == "" || c.DBDb == "" {
				errs = append(errs, errors.New("SURREAL_URL, SURREAL_NS and SURREAL_DB are required for the surreal user store"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown USER_STORE %q", c.UserStore))
		}
	case TransportGraphQL:
		if c.GraphQLURL == "" {
			errs = append(errs, errors.New("GRAPHQL_URL is required for the graphql transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSPORT %q", c.Transport))
	}
	return errors.Join(errs...)
}

func (c *Config) GetAppAddr() string              { return c.AppAddr }
func (c *Config) GetAppBaseURL() string           { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string        { return c.SessionSecret }
func (c *Config) GetPostLoginRedirect() string    { return c.PostLoginRedirect }
func (c *Config) GetWidgetIdleTTL() time.Duration { return c.WidgetIdleTTL }
func (c *Config) GetWidgetMaxLive() int           { return c.WidgetMaxLive }
func (c *Config) GetTransport() string            { return c.Transport }
func (c *Config) GetGraphQLURL() string           { return c.GraphQLURL }
func (c *Config) GetUserStore() string            { return c.UserStore }
func (c *Config) GetUsersFile() string            { return c.UsersFile }
func (c *Config) GetDBUrl() string                { return c.DBUrl }
func (c *Config) GetDBNs() string                 { return c.DBNs }
func (c *Config) GetDBDb() string                 { return c.DBDb }
func (c *Config) GetDBUser() string               { return c.DBUser }
func (c *Config) GetDBPass() string               { return c.DBPass }
func (c *Config) GetEmailProvider() string        { return c.EmailProvider }
func (c *Config) GetEmailAPIKey() string          { return c.EmailAPIKey }
func (c *Config) GetEmailSender() string          { return c.EmailSender }
