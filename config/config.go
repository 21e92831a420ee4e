// Package config loads bot settings from config.ini, an optional .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const DefaultPath = "config.ini"

var ErrMissingToken = errors.New("discord token not found in config.ini")

type Config struct {
	DiscordToken string
	// GuildID scopes slash commands to one guild; empty registers globally.
	GuildID string
	// Broker selects the order backend: "bridge" or "paper".
	Broker       string
	BridgeURL    string
	PostgresURL  string
	HTTPAddr     string
	LogLevel     string
	JaegerURL    string
	OrderRate    float64
	Deviation    int
	Magic        int
	PaperBalance float64
	WatchEvery   time.Duration
}

func defaults() Config {
	return Config{
		Broker:       "bridge",
		BridgeURL:    "http://127.0.0.1:8228",
		HTTPAddr:     ":9000",
		LogLevel:     "info",
		OrderRate:    2,
		Deviation:    20,
		Magic:        234000,
		PaperBalance: 10000,
		WatchEvery:   time.Minute,
	}
}

// Load reads path (missing file is not an error), then .env, then the
// environment. The Discord token is required.
func Load(path string) (*Config, error) {
	cfg := defaults()

	values := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		// Keys are matched case-insensitively, discord_token == DISCORD_TOKEN.
		f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, k := range f.Section(ini.DefaultSection).Keys() {
			values[strings.ToUpper(k.Name())] = k.String()
		}
	}

	// godotenv never overwrites variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			values[key] = v
		}
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		values["DISCORD_TOKEN"] = v
	}

	if err := cfg.apply(values); err != nil {
		return nil, err
	}
	if cfg.DiscordToken == "" {
		return nil, ErrMissingToken
	}
	return &cfg, nil
}

var envKeys = []string{
	"DISCORD_TOKEN",
	"DISCORD_GUILD_ID",
	"BROKER",
	"BRIDGE_URL",
	"POSTGRESQL_URL",
	"HTTP_ADDR",
	"LOG_LEVEL",
	"JAEGER_URL",
	"ORDER_RATE",
	"DEVIATION",
	"MAGIC",
	"PAPER_BALANCE",
	"WATCH_INTERVAL",
}

func (c *Config) apply(values map[string]string) error {
	for key, v := range values {
		var err error
		switch key {
		case "DISCORD_TOKEN":
			c.DiscordToken = v
		case "DISCORD_GUILD_ID":
			c.GuildID = v
		case "BROKER":
			c.Broker = v
		case "BRIDGE_URL":
			c.BridgeURL = v
		case "POSTGRESQL_URL":
			c.PostgresURL = v
		case "HTTP_ADDR":
			c.HTTPAddr = v
		case "LOG_LEVEL":
			c.LogLevel = v
		case "JAEGER_URL":
			c.JaegerURL = v
		case "ORDER_RATE":
			c.OrderRate, err = strconv.ParseFloat(v, 64)
		case "DEVIATION":
			c.Deviation, err = strconv.Atoi(v)
		case "MAGIC":
			c.Magic, err = strconv.Atoi(v)
		case "PAPER_BALANCE":
			c.PaperBalance, err = strconv.ParseFloat(v, 64)
		case "WATCH_INTERVAL":
			c.WatchEvery, err = time.ParseDuration(v)
		}
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	switch c.Broker {
	case "bridge", "paper":
	default:
		return fmt.Errorf("unknown broker %q", c.Broker)
	}
	return nil
}

// Save writes a fresh config file holding only the token.
func Save(path string, token string) error {
	f := ini.Empty()
	if _, err := f.Section(ini.DefaultSection).NewKey("DISCORD_TOKEN", token); err != nil {
		return err
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
