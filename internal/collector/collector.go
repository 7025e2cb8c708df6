// Package collector turns dispatched command results into facts or archived
// configuration.
//
// Each collector dispatches one command to every device, then applies a
// fixed policy to the results: backups fail loudly on archive errors,
// neighbor inspection reports exactly one fact per device, identity
// classification keeps only devices that parsed cleanly. Every run is
// optionally recorded in a fact store and its facts published.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fleetpoll/internal/archive"
	"fleetpoll/internal/dispatch"
	"fleetpoll/internal/domain"
	"fleetpoll/internal/publish"
	"fleetpoll/internal/repository"
)

// Commands sent by each collector
const (
	CommandRunningConfig = "show running-config"
	CommandCDPNeighbors  = "show cdp neighbors"
	CommandVersion       = "show version"
)

// BackupTimestampLayout formats the timestamp embedded in archive file names
const BackupTimestampLayout = "2006-1-2_15-4"

// Dispatcher runs jobs; *dispatch.Dispatcher satisfies it
type Dispatcher interface {
	Dispatch(ctx context.Context, jobs []domain.CommandJob, limit int) []domain.RawResult
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)

// Collector runs the fact collection workflows
type Collector struct {
	dispatcher  Dispatcher
	archiver    archive.Archiver
	store       repository.FactStore
	publisher   publish.Publisher
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// Option configures a Collector
type Option func(*Collector)

// WithLogger sets the collector logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Collector) {
		c.log = log.With().Str("component", "collector").Logger()
	}
}

// WithConcurrency sets the dispatch limit, dispatch.DefaultConcurrency when unset
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		c.concurrency = n
	}
}

// WithStore records runs and facts in store
func WithStore(store repository.FactStore) Option {
	return func(c *Collector) {
		c.store = store
	}
}

// WithPublisher publishes neighbor and identity facts
func WithPublisher(p publish.Publisher) Option {
	return func(c *Collector) {
		c.publisher = p
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// New creates a collector. archiver may be nil when backups are not used.
func New(d Dispatcher, archiver archive.Archiver, opts ...Option) *Collector {
	c := &Collector{
		dispatcher:  d,
		archiver:    archiver,
		concurrency: dispatch.DefaultConcurrency,
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) dispatch(ctx context.Context, devices []domain.DeviceDescriptor, command string) []domain.RawResult {
	return c.dispatcher.Dispatch(ctx, domain.JobsFor(devices, command), c.concurrency)
}

// recordRun persists a finished run when a store is configured
func (c *Collector) recordRun(ctx context.Context, run *domain.Run) error {
	c.log.Info().
		Str("run", run.ID).
		Str("kind", string(run.Kind)).
		Int("devices", run.Devices).
		Int("succeeded", run.Succeeded).
		Msg("run finished")

	if c.store == nil {
		return nil
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("record %s run: %w", run.Kind, err)
	}
	return nil
}

// logFailure records a job that produced nothing usable
func (c *Collector) logFailure(res domain.RawResult, msg string) {
	c.log.Warn().
		Err(res.Err).
		Str("host", res.Device.Host).
		Str("hostname", res.Hostname).
		Str("outcome", string(res.Outcome)).
		Msg(msg)
}
