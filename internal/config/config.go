package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken     string
	MongoURI          string
	MongoDB           string
	UseTransactions   bool
	AdminIDs          []int64
	ReconcileSchedule string
	ReminderSchedule  string
	CurrencySymbol    string
	NumberLocale      language.Tag
	LogDir            string
	PageSize          int
}

const (
	defaultReconcileSchedule = "0 3 * * *"
	defaultReminderSchedule  = "0 9 5 * *"
	defaultCurrencySymbol    = "₹"
	defaultNumberLocale      = "en-IN"
	defaultLogDir            = "logs"
	defaultPageSize          = 10
)

// Load loads configuration from the environment, reading .env first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it.")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:     getenv("TELEGRAM_BOT_TOKEN"),
		MongoURI:          getenv("MONGODB_URI"),
		MongoDB:           getenv("MONGODB_DB"),
		ReconcileSchedule: orDefault(getenv("RECONCILE_SCHEDULE"), defaultReconcileSchedule),
		ReminderSchedule:  orDefault(getenv("REMINDER_SCHEDULE"), defaultReminderSchedule),
		CurrencySymbol:    orDefault(getenv("CURRENCY_SYMBOL"), defaultCurrencySymbol),
		LogDir:            orDefault(getenv("LOG_DIR"), defaultLogDir),
		PageSize:          defaultPageSize,
	}

	// Validate required fields
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI not set")
	}
	if cfg.MongoDB == "" {
		return nil, fmt.Errorf("MONGODB_DB not set")
	}

	ids, err := parseIDs(getenv("ADMIN_TELEGRAM_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_IDS: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS not set")
	}
	cfg.AdminIDs = ids

	if v := getenv("MONGODB_TRANSACTIONS"); v != "" {
		cfg.UseTransactions, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MONGODB_TRANSACTIONS: %w", err)
		}
	}

	if v := getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid PAGE_SIZE %q", v)
		}
		cfg.PageSize = n
	}

	cfg.NumberLocale, err = language.Parse(orDefault(getenv("NUMBER_LOCALE"), defaultNumberLocale))
	if err != nil {
		return nil, fmt.Errorf("invalid NUMBER_LOCALE: %w", err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, spec := range map[string]string{
		"RECONCILE_SCHEDULE": cfg.ReconcileSchedule,
		"REMINDER_SCHEDULE":  cfg.ReminderSchedule,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return cfg, nil
}

// IsAdmin reports whether the telegram user is a configured administrator.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
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
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
