package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/lox/homegame/internal/config"
	"github.com/lox/homegame/internal/lobby"
	"github.com/lox/homegame/internal/randutil"
	"github.com/lox/homegame/internal/server"
	"github.com/lox/homegame/internal/store"
	"github.com/lox/homegame/internal/table"
)

// ServeCmd runs every configured table behind the websocket server.
// Flags override the environment, which overrides the config file.
type ServeCmd struct {
	Config      string `short:"c" default:"homegame.hcl" help:"Path to HCL configuration file"`
	Addr        string `short:"a" help:"Address to listen on (overrides config)"`
	LogLevel    string `short:"l" help:"Log level: debug, info, warn or error (overrides config)"`
	Seed        *int64 `help:"Deterministic shuffle seed (overrides config)"`
	StoreDriver string `help:"Store driver: memory, postgres or sqlite3 (overrides config)"`
	StoreDSN    string `name:"store-dsn" help:"Store connection string (overrides config)"`
	HistoryDir  string `help:"Directory for PHH hand histories (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	var seedOverride *int64
	if cfg.Server.Seed != 0 {
		seedOverride = &cfg.Server.Seed
	}
	_, seed := randutil.Seeded(seedOverride)
	logger.Info("Using shuffle seed", "seed", seed, "fixed", seedOverride != nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rooms := make([]*server.Room, 0, len(cfg.Tables))
	for _, tc := range cfg.Tables {
		lb := lobby.New(tc.BuyIn, tc.MaxSeats, lobby.WithStore(tc.Name, st))
		if err := lb.Restore(ctx); err != nil {
			return err
		}
		opts := []table.Option{
			table.WithLogger(logger),
			table.WithRand(randutil.Derive(seed, tc.Name)),
			table.WithSettings(tc.Settings()),
		}
		if cfg.Server.HistoryDir != "" {
			opts = append(opts, table.WithHistoryDir(cfg.Server.HistoryDir))
		}
		tbl := table.New(tc.Name, lb, st, opts...)
		rooms = append(rooms, &server.Room{Table: tbl, Lobby: lb})
		logger.Info("Configured table",
			"table", tc.Name,
			"stakes", fmt.Sprintf("%d/%d", tc.SmallBlind, tc.BigBlind),
			"buyIn", tc.BuyIn,
			"maxSeats", tc.MaxSeats,
			"turn", tc.Settings().TurnDuration)
	}

	srv := server.NewServer(cfg.Server.Address, rooms, logger)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (c *ServeCmd) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}
	if c.HistoryDir != "" {
		cfg.Server.HistoryDir = c.HistoryDir
	}
	if c.StoreDriver != "" {
		cfg.Store.Driver = c.StoreDriver
	}
	if c.StoreDSN != "" {
		cfg.Store.DSN = c.StoreDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, s config.StoreSettings) (store.Store, error) {
	if s.Driver == config.DriverMemory {
		return store.NewMemoryStore(), nil
	}
	sqlStore, err := store.Open(ctx, s.Driver, s.DSN)
	if err != nil {
		return nil, err
	}
	return sqlStore, nil
}
