package collector

import (
	"context"
	"fmt"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/parser"
)

// ClassifyIdentity reads software, version and hardware from every device.
// Failed jobs and unparseable output are logged and left out, so the result
// may be shorter than devices.
func (c *Collector) ClassifyIdentity(ctx context.Context, devices []domain.DeviceDescriptor) ([]domain.DeviceIdentityFact, error) {
	run := domain.NewRun(domain.RunKindIdentity, len(devices), c.now())

	results := c.dispatch(ctx, devices, CommandVersion)
	var facts []domain.DeviceIdentityFact

	for _, res := range results {
		if !res.OK() {
			c.logFailure(res, "identity skipped")
			continue
		}

		fact, err := parser.Identity(res.Hostname, res.Output)
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("host", res.Device.Host).
				Str("hostname", res.Hostname).
				Msg("identity skipped")
			continue
		}
		fact.Address = res.Device.Address()
		facts = append(facts, fact)
	}

	run.Finish(len(facts), c.now())
	if err := c.recordRun(ctx, run); err != nil {
		return facts, err
	}
	if c.store != nil && len(facts) > 0 {
		if err := c.store.SaveIdentityFacts(ctx, run.ID, facts); err != nil {
			return facts, fmt.Errorf("record identity facts: %w", err)
		}
	}

	if c.publisher != nil && len(facts) > 0 {
		if err := c.publisher.PublishIdentity(ctx, run.ID, facts); err != nil {
			c.log.Warn().Err(err).Str("run", run.ID).Msg("failed to publish identity facts")
		}
	}
	return facts, nil
}
