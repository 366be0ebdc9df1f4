package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	BotToken string
	AdminIDs []int64
	Mode     string
	Webhook  string
	HTTPAddr string

	Backend  string
	Sheets   Sheets
	Database Database
	Tables   ports.Tables

	StoreRatePerSec float64
	StoreBurst      int

	LegacyPromptHeuristic bool
	BroadcastProgress     int

	LogLevel string
	LogPath  string
}

type Sheets struct {
	SpreadsheetID   string
	CredentialsPath string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (d Database) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

// DatabaseFromEnv reads only the postgres settings.
func DatabaseFromEnv(getenv func(string) string) Database {
	get := lookup(getenv)
	return Database{
		Host:     get("POSTGRES_HOST", "localhost"),
		Port:     get("POSTGRES_PORT", "5432"),
		User:     get("POSTGRES_USER", ""),
		Password: get("POSTGRES_PASSWORD", ""),
		Name:     get("POSTGRES_DB", ""),
	}
}

func lookup(getenv func(string) string) func(key, def string) string {
	return func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using the process environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Only malformed values are
// reported here; call Validate once flag overrides are applied.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := lookup(getenv)

	cfg := &Config{
		BotToken: get("BOT_TOKEN", ""),
		Mode:     strings.ToLower(get("BOT_MODE", ModePolling)),
		Webhook:  get("WEBHOOK_URL", ""),
		HTTPAddr: get("HTTP_ADDR", "0.0.0.0:8080"),
		Backend:  strings.ToLower(get("STORE_BACKEND", BackendSheets)),
		Sheets: Sheets{
			SpreadsheetID:   get("SPREADSHEET_ID", ""),
			CredentialsPath: get("GOOGLE_CREDENTIALS_PATH", "credentials.json"),
		},
		Database: DatabaseFromEnv(getenv),
		LogLevel: get("LOG_LEVEL", "info"),
		LogPath:  get("LOG_PATH", ""),
	}

	defaults := ports.DefaultTables()
	cfg.Tables = ports.Tables{
		Questions:  get("SHEET_QUESTIONS", defaults.Questions),
		Answers:    get("SHEET_ANSWERS", defaults.Answers),
		Statistics: get("SHEET_STATISTICS", defaults.Statistics),
		Admins:     get("SHEET_ADMINS", defaults.Admins),
		Users:      get("SHEET_USERS", defaults.Users),
		Messages:   get("SHEET_MESSAGES", defaults.Messages),
		Posts:      get("SHEET_POSTS", defaults.Posts),
	}

	var errs []error
	var err error

	if cfg.AdminIDs, err = parseIDs(get("ADMIN_IDS", "")); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_IDS: %w", err))
	}
	if cfg.StoreRatePerSec, err = strconv.ParseFloat(get("STORE_RATE_PER_SEC", "1"), 64); err != nil {
		errs = append(errs, fmt.Errorf("STORE_RATE_PER_SEC: %w", err))
	}
	if cfg.StoreBurst, err = strconv.Atoi(get("STORE_BURST", "5")); err != nil {
		errs = append(errs, fmt.Errorf("STORE_BURST: %w", err))
	}
	if cfg.BroadcastProgress, err = strconv.Atoi(get("BROADCAST_PROGRESS_EVERY", "25")); err != nil {
		errs = append(errs, fmt.Errorf("BROADCAST_PROGRESS_EVERY: %w", err))
	}
	if cfg.LegacyPromptHeuristic, err = strconv.ParseBool(get("LEGACY_PROMPT_HEURISTIC", "false")); err != nil {
		errs = append(errs, fmt.Errorf("LEGACY_PROMPT_HEURISTIC: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the settings the bot needs to start.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}

	switch c.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Webhook == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required when BOT_MODE is webhook"))
		}
	default:
		errs = append(errs, fmt.Errorf("BOT_MODE: unknown mode %q", c.Mode))
	}

	switch c.Backend {
	case BackendSheets:
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("SPREADSHEET_ID is required for the sheets backend"))
		}
	case BackendPostgres:
		if c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("POSTGRES_USER and POSTGRES_DB are required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.Backend))
	}
	return errors.Join(errs...)
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
