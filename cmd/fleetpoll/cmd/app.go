package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fleetpoll/internal/archive"
	"fleetpoll/internal/codec"
	"fleetpoll/internal/collector"
	"fleetpoll/internal/config"
	"fleetpoll/internal/credentials"
	"fleetpoll/internal/dispatch"
	"fleetpoll/internal/domain"
	"fleetpoll/internal/inventory"
	"fleetpoll/internal/logger"
	"fleetpoll/internal/preflight"
	"fleetpoll/internal/publish"
	"fleetpoll/internal/repository/sqlite"
	"fleetpoll/internal/session"
)

// app holds everything a subcommand needs, built from config and flags
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	exporter codec.Exporter
	out      io.Writer

	store *sqlite.Repository
	nc    *nats.Conn
}

// newApp loads config, applies flag overrides and sets up logging and the
// optional fact store.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if inventoryFile != "" {
		cfg.Inventory = inventoryFile
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if debug {
		cfg.Logging.Debug = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("loaded config")
	}

	exporter, err := codec.ForFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, exporter: exporter, out: cmd.OutOrStdout()}

	if cfg.Database.Path != "" {
		store, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open fact store: %w", err)
		}
		a.store = store
	}

	return a, nil
}

func loadConfig() (*config.Config, string, error) {
	if cfgFile != "" {
		return config.LoadFromPath(cfgFile)
	}
	return config.Load()
}

// collector wires the SSH provider, dispatcher and optional store and
// publisher into a collector.
func (a *app) collector(archiver archive.Archiver) (*collector.Collector, error) {
	provider := session.NewSSHProvider(session.SSHConfig{
		ConnectTimeout: a.cfg.ConnectTimeout.Duration(),
		CommandTimeout: a.cfg.CommandTimeout.Duration(),
		KnownHostsFile: a.cfg.KnownHosts,
		DisablePaging:  true,
	}, session.WithLogger(a.log))

	opts := []collector.Option{
		collector.WithLogger(a.log),
		collector.WithConcurrency(a.cfg.Concurrency),
	}
	if a.store != nil {
		opts = append(opts, collector.WithStore(a.store))
	}

	if a.cfg.NATS.URL != "" {
		pub, nc, err := publish.Connect(a.cfg.NATS.URL, a.cfg.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		a.nc = nc
		opts = append(opts, collector.WithPublisher(pub))
	}

	d := dispatch.New(provider, dispatch.WithLogger(a.log))
	return collector.New(d, archiver, opts...), nil
}

// devices loads the inventory, resolves credentials and drops devices that
// fail the preflight check when it is enabled.
func (a *app) devices(ctx context.Context) ([]domain.DeviceDescriptor, error) {
	entries, err := inventory.Load(a.cfg.Inventory)
	if err != nil {
		return nil, err
	}

	resolvers := credentials.Chain{credentials.Env{
		PasswordVar: a.cfg.Credentials.PasswordEnv,
		SecretVar:   a.cfg.Credentials.SecretEnv,
	}}
	if a.cfg.Credentials.Prompt {
		resolvers = append(resolvers, credentials.NewPrompt())
	}

	devices, err := inventory.Build(ctx, entries, a.cfg.Credentials.Username, resolvers)
	if err != nil {
		return nil, err
	}
	a.log.Info().Int("devices", len(devices)).Str("inventory", a.cfg.Inventory).Msg("inventory loaded")

	if !a.cfg.Preflight.Enabled {
		return devices, nil
	}

	checker := preflight.New(
		preflight.WithTimeout(a.cfg.Preflight.Timeout.Duration()),
		preflight.WithLogger(a.log),
	)
	reachable, unreachable, err := checker.Filter(ctx, devices)
	if err != nil {
		return nil, err
	}
	if len(unreachable) > 0 {
		a.log.Warn().Int("skipped", len(unreachable)).Msg("devices failed preflight")
	}
	return reachable, nil
}

func (a *app) render(v any) error {
	return a.exporter.Export(v, a.out)
}

func (a *app) Close() {
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.log.Warn().Err(err).Msg("nats drain")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close fact store")
		}
	}
}
