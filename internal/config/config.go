// Package config loads homegame server configuration from an HCL file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"

	"github.com/lox/homegame/internal/seat"
	"github.com/lox/homegame/internal/store"
	"github.com/lox/homegame/internal/table"
)

// EnvPrefix prefixes every environment override, e.g. HOMEGAME_SERVER_ADDRESS.
const EnvPrefix = "homegame"

// DriverMemory keeps table state in process memory only.
const DriverMemory = "memory"

// LogLevels are the accepted values of server.log_level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings
	Store  StoreSettings
	Tables []TableConfig `ignored:"true"`
}

// ServerSettings configures the HTTP listener and process-wide behaviour.
type ServerSettings struct {
	Address  string `hcl:"address,optional" envconfig:"address"`
	LogLevel string `hcl:"log_level,optional" envconfig:"log_level"`
	// Seed fixes the shuffle for reproducible sessions. Zero picks one at random.
	Seed int64 `hcl:"seed,optional" envconfig:"seed"`
	// HistoryDir receives a PHH file per settled hand. Empty disables it.
	HistoryDir string `hcl:"history_dir,optional" envconfig:"history_dir"`
}

// StoreSettings selects where table state is kept.
type StoreSettings struct {
	Driver string `hcl:"driver,optional" envconfig:"driver"`
	DSN    string `hcl:"dsn,optional" envconfig:"dsn"`
}

// TableConfig defines one table.
type TableConfig struct {
	Name        string `hcl:"name,label"`
	SmallBlind  int    `hcl:"small_blind,optional"`
	BigBlind    int    `hcl:"big_blind,optional"`
	TurnSeconds int    `hcl:"turn_seconds,optional"`
	BuyIn       int    `hcl:"buy_in,optional"`
	MaxSeats    int    `hcl:"max_seats,optional"`
}

// file mirrors the HCL layout. Blocks are pointers so they may be omitted.
type file struct {
	Server *ServerSettings `hcl:"server,block"`
	Store  *StoreSettings  `hcl:"store,block"`
	Tables []TableConfig   `hcl:"table,block"`
}

// Default returns a single 1/2 table with in-memory state on :8080.
func Default() *Config {
	return &Config{
		Server: ServerSettings{Address: ":8080", LogLevel: "info"},
		Store:  StoreSettings{Driver: DriverMemory},
		Tables: []TableConfig{defaultTable("main")},
	}
}

func defaultTable(name string) TableConfig {
	return TableConfig{
		Name:        name,
		SmallBlind:  1,
		BigBlind:    2,
		TurnSeconds: 60,
		BuyIn:       200,
		MaxSeats:    seat.MaxSeats,
	}
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source over the defaults. Tables given in the source
// replace the default table; settings they omit take default values.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if s := raw.Server; s != nil {
		if s.Address != "" {
			cfg.Server.Address = s.Address
		}
		if s.LogLevel != "" {
			cfg.Server.LogLevel = s.LogLevel
		}
		cfg.Server.Seed = s.Seed
		cfg.Server.HistoryDir = s.HistoryDir
	}
	if s := raw.Store; s != nil {
		if s.Driver != "" {
			cfg.Store.Driver = s.Driver
		}
		cfg.Store.DSN = s.DSN
	}
	if len(raw.Tables) > 0 {
		cfg.Tables = cfg.Tables[:0]
		for _, t := range raw.Tables {
			cfg.Tables = append(cfg.Tables, withTableDefaults(t))
		}
	}
	return cfg, nil
}

func withTableDefaults(t TableConfig) TableConfig {
	def := defaultTable(t.Name)
	if t.SmallBlind == 0 && t.BigBlind == 0 {
		t.SmallBlind, t.BigBlind = def.SmallBlind, def.BigBlind
	}
	if t.TurnSeconds == 0 {
		t.TurnSeconds = def.TurnSeconds
	}
	if t.BuyIn == 0 {
		t.BuyIn = 100 * t.BigBlind
	}
	if t.MaxSeats == 0 {
		t.MaxSeats = def.MaxSeats
	}
	return t
}

// ApplyEnv overrides server and store settings from HOMEGAME_* variables.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if !slices.Contains(LogLevels, c.Server.LogLevel) {
		return fmt.Errorf("invalid log level %q, want one of %v", c.Server.LogLevel, LogLevels)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case store.DriverPostgres, store.DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s needs a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if len(c.Tables) == 0 {
		return errors.New("at least one table must be configured")
	}
	names := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if t.Name == "" {
			return errors.New("table name is required")
		}
		if names[t.Name] {
			return fmt.Errorf("table %s is configured twice", t.Name)
		}
		names[t.Name] = true

		if err := t.Settings().Validate(); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
		if t.BuyIn <= 0 {
			return fmt.Errorf("table %s: buy-in must be positive", t.Name)
		}
		if t.MaxSeats < 2 || t.MaxSeats > seat.MaxSeats {
			return fmt.Errorf("table %s: max seats must be between 2 and %d", t.Name, seat.MaxSeats)
		}
	}
	return nil
}

// Settings returns the table's initial rules.
func (t TableConfig) Settings() table.Settings {
	return table.Settings{
		SmallBlind:   t.SmallBlind,
		BigBlind:     t.BigBlind,
		TurnDuration: time.Duration(t.TurnSeconds) * time.Second,
	}
}

// Table returns the named table's configuration.
func (c *Config) Table(name string) (TableConfig, bool) {
	i := slices.IndexFunc(c.Tables, func(t TableConfig) bool { return t.Name == name })
	if i < 0 {
		return TableConfig{}, false
	}
	return c.Tables[i], true
}
