// Package config loads simulation settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/assembly/internal/world"
)

// Date is a calendar day written as YYYY-MM-DD.
type Date struct{ time.Time }

func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	t, err := time.Parse(time.DateOnly, n.Value)
	if err != nil {
		return fmt.Errorf("date %q: %w", n.Value, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.Format(time.DateOnly), nil
}

// Player places the player's character.
type Player struct {
	Name          string `yaml:"name"`
	AffiliationID string `yaml:"affiliation"`
	Seat          string `yaml:"seat"`
}

// Config holds every setting for a run.
type Config struct {
	Seed          int64         `yaml:"seed"`
	Start         Date          `yaml:"start"`
	FirstElection Date          `yaml:"first_election"`
	Interval      time.Duration `yaml:"interval"`
	Speed         float64       `yaml:"speed"`
	Autopilot     bool          `yaml:"autopilot"`
	SaveEvery     int           `yaml:"save_every_days"`

	DBPath   string `yaml:"db"`
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"`
	LogLevel string `yaml:"log_level"`

	World     world.GenConfig `yaml:"world"`
	Reference string          `yaml:"reference"` // Optional seat table, replaces World
	Player    *Player         `yaml:"player"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Seed:          1957,
		Start:         Date{time.Date(1958, time.January, 1, 0, 0, 0, 0, time.UTC)},
		FirstElection: Date{time.Date(1959, time.August, 19, 0, 0, 0, 0, time.UTC)},
		Interval:      time.Second,
		Speed:         1,
		SaveEvery:     30,
		DBPath:        "data/assembly.db",
		Port:          8080,
		LogLevel:      "info",
		World:         world.DefaultGenConfig(),
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ASSEMBLY_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ASSEMBLY_SEED: %w", err)
		}
		c.Seed = n
	}
	if v := getenv("ASSEMBLY_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ASSEMBLY_PORT: %w", err)
		}
		c.Port = n
	}
	if v := getenv("ASSEMBLY_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("ASSEMBLY_ADMIN_KEY"); v != "" {
		c.AdminKey = v
	}
	if v := getenv("ASSEMBLY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	if !c.FirstElection.After(c.Start.Time) {
		return fmt.Errorf("first election %s must fall after the start %s",
			c.FirstElection.Format(time.DateOnly), c.Start.Format(time.DateOnly))
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Speed < 0 {
		return fmt.Errorf("speed cannot be negative")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Geography builds the seat table: the reference file when one is set,
// otherwise a generated map seeded from the run seed.
func (c Config) Geography() (*world.Geography, error) {
	if c.Reference != "" {
		return world.LoadReference(c.Reference)
	}
	gen := c.World
	if gen.Seed == 0 {
		gen.Seed = c.Seed
	}
	return world.Generate(gen), nil
}
