// Package config loads service settings from the environment, an optional
// .env file and the mod's JSON options file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	TemplateStoreSQLite = "sqlite"
	TemplateStoreMySQL  = "mysql"
)

type Mod struct {
	LoseArmbandOnDeath        bool `env:"LOSE_ARMBAND_ON_DEATH" envDefault:"false" json:"loseArmbandOnDeath"`
	AddCasesToSecureContainer bool `env:"ADD_CASES_TO_SECURE_CONTAINER" envDefault:"true" json:"addCasesToSecureContainer"`
}

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr        string        `env:"GRPC_ADDR" envDefault:":50051"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"100"`

	TemplateStore    string `env:"TEMPLATE_STORE" envDefault:"sqlite"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"templates.db"`
	MySQLDSN         string `env:"MYSQL_DSN"`
	TemplateSeedFile string `env:"TEMPLATE_SEED_FILE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	ModConfigFile string `env:"MOD_CONFIG_FILE"`
	Mod           Mod
}

// Load reads .env (when present), then the environment, then the mod file
// named by MOD_CONFIG_FILE.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ModConfigFile != "" {
		mod, err := LoadModFile(cfg.ModConfigFile, cfg.Mod)
		if err != nil {
			return Config{}, err
		}
		cfg.Mod = mod
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadModFile overlays the keys present in the JSON file at path onto base.
func LoadModFile(path string, base Mod) (Mod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mod{}, fmt.Errorf("read mod config: %w", err)
	}

	var overlay struct {
		LoseArmbandOnDeath        *bool `json:"loseArmbandOnDeath"`
		AddCasesToSecureContainer *bool `json:"addCasesToSecureContainer"`
	}
	if err := json.Unmarshal(data, &overlay); err != nil {
		return Mod{}, fmt.Errorf("decode mod config: %w", err)
	}

	if overlay.LoseArmbandOnDeath != nil {
		base.LoseArmbandOnDeath = *overlay.LoseArmbandOnDeath
	}
	if overlay.AddCasesToSecureContainer != nil {
		base.AddCasesToSecureContainer = *overlay.AddCasesToSecureContainer
	}
	return base, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.TemplateStore) {
	case TemplateStoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required for the sqlite template store")
		}
	case TemplateStoreMySQL:
		if strings.TrimSpace(c.MySQLDSN) == "" {
			return errors.New("MYSQL_DSN is required for the mysql template store")
		}
	default:
		return fmt.Errorf("unknown TEMPLATE_STORE %q", c.TemplateStore)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// TemplateSource is the SQLite path or MySQL DSN for the selected store.
func (c Config) TemplateSource() string {
	if strings.EqualFold(c.TemplateStore, TemplateStoreMySQL) {
		return c.MySQLDSN
	}
	return c.SQLitePath
}
