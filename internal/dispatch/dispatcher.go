// Package dispatch fans one command out to many devices over a bounded pool
// of workers and fans the results back in.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/parser"
	"fleetpoll/internal/session"
)

// DefaultConcurrency is the worker count used when a caller passes limit <= 0
const DefaultConcurrency = 3

// Dispatcher runs CommandJobs against a session provider
type Dispatcher struct {
	provider session.Provider
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log.With().Str("component", "dispatch").Logger()
	}
}

// WithClock overrides time.Now, used for job durations
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a dispatcher bound to a session provider
func New(provider session.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs every job with at most limit sessions open at once and
// returns exactly one result per job; results[i] belongs to jobs[i].
//
// Context cancellation is only observed before a job starts: jobs that have
// not started get a timeout result carrying ctx.Err(), jobs in flight run to
// completion. All workers have exited when Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []domain.CommandJob, limit int) []domain.RawResult {
	results := make([]domain.RawResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	if limit <= 0 {
		limit = DefaultConcurrency
	}
	workers := min(limit, len(jobs))

	queue := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = d.run(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	d.log.Debug().
		Int("jobs", len(jobs)).
		Int("workers", workers).
		Msg("dispatch complete")

	return results
}

// run drives a single job: open, resolve hostname, send, close
func (d *Dispatcher) run(ctx context.Context, job domain.CommandJob) domain.RawResult {
	res := domain.RawResult{
		Device:  job.Device,
		Command: job.Command,
	}

	if err := ctx.Err(); err != nil {
		res.Outcome = domain.OutcomeTimeout
		res.Err = fmt.Errorf("job not started: %v: %w", err, domain.ErrTimeout)
		d.logEnd(res)
		return res
	}

	start := d.now()
	d.log.Debug().
		Str("host", job.Device.Host).
		Str("command", job.Command).
		Msg("job started")

	res = d.exchange(ctx, res)
	res.Duration = d.now().Sub(start)
	d.logEnd(res)
	return res
}

func (d *Dispatcher) exchange(ctx context.Context, res domain.RawResult) domain.RawResult {
	sess, err := d.provider.Open(ctx, res.Device)
	if err != nil {
		res.Outcome = domain.OutcomeFor(err)
		res.Err = err
		return res
	}
	defer func() {
		if err := sess.Close(); err != nil {
			d.log.Debug().Err(err).Str("host", res.Device.Host).Msg("session close")
		}
	}()

	hostname, err := parser.Hostname(sess.CurrentPrompt())
	if err != nil {
		res.Outcome = domain.OutcomeMalformedPrompt
		res.Err = err
	} else {
		res.Hostname = hostname
	}

	output, err := sess.Send(res.Command)
	if err != nil {
		res.Output = ""
		res.Err = err
		res.Outcome = domain.OutcomeConnectFailure
		if errors.Is(err, domain.ErrTimeout) {
			res.Outcome = domain.OutcomeTimeout
		}
		return res
	}
	res.Output = output

	if res.Outcome == "" {
		res.Outcome = domain.OutcomeSuccess
	}
	return res
}

func (d *Dispatcher) logEnd(res domain.RawResult) {
	ev := d.log.Info()
	if !res.OK() {
		ev = d.log.Warn().Err(res.Err)
	}
	ev.Str("host", res.Device.Host).
		Str("hostname", res.Hostname).
		Str("outcome", string(res.Outcome)).
		Dur("duration", res.Duration).
		Msg("job finished")
}
