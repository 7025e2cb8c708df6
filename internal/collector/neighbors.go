package collector

import (
	"context"
	"fmt"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/parser"
)

// InspectNeighbors reports the CDP state of every device. Devices whose job
// failed get an "unknown" fact labelled with their inventory name, or host
// when unnamed, so the result has exactly one fact per device, in input order.
func (c *Collector) InspectNeighbors(ctx context.Context, devices []domain.DeviceDescriptor) ([]domain.CdpNeighborFact, error) {
	facts, _, err := c.inspectNeighbors(ctx, devices)
	return facts, err
}

// InspectNeighborsDetail is InspectNeighbors plus the parsed neighbor lines
// of every device that answered with CDP enabled.
func (c *Collector) InspectNeighborsDetail(ctx context.Context, devices []domain.DeviceDescriptor) ([]domain.CdpNeighborFact, []domain.NeighborTable, error) {
	return c.inspectNeighbors(ctx, devices)
}

func (c *Collector) inspectNeighbors(ctx context.Context, devices []domain.DeviceDescriptor) ([]domain.CdpNeighborFact, []domain.NeighborTable, error) {
	run := domain.NewRun(domain.RunKindNeighbors, len(devices), c.now())

	results := c.dispatch(ctx, devices, CommandCDPNeighbors)
	facts := make([]domain.CdpNeighborFact, 0, len(results))
	var tables []domain.NeighborTable

	for _, res := range results {
		if !res.OK() {
			c.logFailure(res, "neighbor state unknown")
			fact := domain.UnknownNeighborFact(res.Identity())
			fact.Address = res.Device.Address()
			facts = append(facts, fact)
			continue
		}

		fact := parser.Neighbors(res.Hostname, res.Output)
		fact.Address = res.Device.Address()
		facts = append(facts, fact)
		if fact.Enabled {
			tables = append(tables, domain.NeighborTable{
				Device:  res.Hostname,
				Records: parser.NeighborRecords(res.Output),
			})
		}
	}

	run.Finish(len(facts)-countStatus(facts, domain.CDPStatusUnknown), c.now())
	if err := c.recordRun(ctx, run); err != nil {
		return facts, tables, err
	}
	if c.store != nil {
		if err := c.store.SaveNeighborFacts(ctx, run.ID, facts); err != nil {
			return facts, tables, fmt.Errorf("record neighbor facts: %w", err)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishNeighbors(ctx, run.ID, facts); err != nil {
			c.log.Warn().Err(err).Str("run", run.ID).Msg("failed to publish neighbor facts")
		}
	}
	return facts, tables, nil
}

func countStatus(facts []domain.CdpNeighborFact, status domain.CDPStatus) int {
	n := 0
	for _, f := range facts {
		if f.Status == status {
			n++
		}
	}
	return n
}
