// Package config holds runtime settings for the timesheet server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warp/timesheet/timesheet"
)

// Backend selects the Record Store implementation.
type Backend string

const (
	BackendCSV    Backend = "csv"
	BackendSQLite Backend = "sqlite"
)

// DefaultPeople is the workshop roster used when TIMESHEET_PEOPLE is unset.
var DefaultPeople = []string{
	"Daniel SIMON", "Mélanie BOUVIER", "Christian GEORGEAULT", "Aurélien LOUAPRE",
	"Ludovic VETTIER", "Ludovic BELINE", "Régis ANGER", "Clément MARTINEZ",
	"Richard LEBRUN", "Guillaume TREFOUEL", "Quentin GODET", "Francois DAUPHIN",
}

// Config keeps runtime settings.
type Config struct {
	Addr            string
	Backend         Backend
	StorePath       string
	AdminSecret     string
	AdminSecretHash string
	People          []string
	Strict          bool
	AllowedOrigins  []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	cfg := Config{
		Addr:            env("TIMESHEET_ADDR", ":8080"),
		Backend:         Backend(strings.ToLower(env("TIMESHEET_BACKEND", string(BackendCSV)))),
		StorePath:       strings.TrimSpace(os.Getenv("TIMESHEET_STORE")),
		AdminSecret:     os.Getenv("TIMESHEET_ADMIN_SECRET"),
		AdminSecretHash: strings.TrimSpace(os.Getenv("TIMESHEET_ADMIN_SECRET_HASH")),
		People:          splitList(os.Getenv("TIMESHEET_PEOPLE")),
		Strict:          parseBool(os.Getenv("TIMESHEET_STRICT")),
		AllowedOrigins:  splitList(os.Getenv("TIMESHEET_ALLOWED_ORIGINS")),
	}

	if cfg.StorePath == "" {
		cfg.StorePath = cfg.DefaultStorePath()
	}
	if len(cfg.People) == 0 {
		cfg.People = append([]string(nil), DefaultPeople...)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	return cfg
}

// DefaultStorePath is the file used when none is configured.
func (c Config) DefaultStorePath() string {
	if c.Backend == BackendSQLite {
		return "timesheet.db"
	}
	return "heures_maintenance.csv"
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (use csv or sqlite)", c.Backend)
	}
	if c.StorePath == "" {
		return errors.New("store path is required")
	}
	if len(c.People) == 0 {
		return errors.New("at least one person is required")
	}
	return nil
}

// ValidateServe additionally requires an admin credential.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AdminSecret == "" && c.AdminSecretHash == "" {
		return errors.New("TIMESHEET_ADMIN_SECRET or TIMESHEET_ADMIN_SECRET_HASH is required")
	}
	return nil
}

// Authorizer builds the admin credential check. A hash wins over a plain secret.
func (c Config) Authorizer() timesheet.Authorizer {
	if c.AdminSecretHash != "" {
		return timesheet.HashedSecret(c.AdminSecretHash)
	}
	return timesheet.StaticSecret(c.AdminSecret)
}

// HasPerson reports whether person is on the configured roster.
func (c Config) HasPerson(person string) bool {
	for _, p := range c.People {
		if p == person {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
