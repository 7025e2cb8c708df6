// Package preflight filters the inventory down to devices whose SSH port
// answers, using an nmap TCP scan.
package preflight

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"fleetpoll/internal/domain"
)

// ScanFunc runs one nmap scan. It is swapped out in tests.
type ScanFunc func(ctx context.Context, targets []string, ports string) (*nmap.Run, error)

// Checker checks device SSH reachability before dispatch
type Checker struct {
	timeout time.Duration
	scan    ScanFunc
	log     zerolog.Logger
}

// Option configures a Checker
type Option func(*Checker)

// WithTimeout bounds the whole scan
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithLogger sets the checker logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Checker) {
		c.log = log.With().Str("component", "preflight").Logger()
	}
}

// WithScanFunc replaces the nmap runner
func WithScanFunc(fn ScanFunc) Option {
	return func(c *Checker) {
		c.scan = fn
	}
}

// New creates a checker that shells out to the nmap binary
func New(opts ...Option) *Checker {
	c := &Checker{
		timeout: 30 * time.Second,
		log:     zerolog.Nop(),
	}
	c.scan = c.runNmap
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filter splits devices into those with an open SSH port and those without.
// Input order is preserved in both slices.
func (c *Checker) Filter(ctx context.Context, devices []domain.DeviceDescriptor) (reachable, unreachable []domain.DeviceDescriptor, err error) {
	if len(devices) == 0 {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	targets, ports := scanPlan(devices)
	c.log.Debug().
		Int("targets", len(targets)).
		Str("ports", ports).
		Msg("scanning ssh ports")

	result, err := c.scan(ctx, targets, ports)
	if err != nil {
		return nil, nil, fmt.Errorf("preflight scan failed: %w", err)
	}

	open := openPorts(result)
	for _, d := range devices {
		if open[endpoint(d.Host, port(d))] {
			reachable = append(reachable, d)
			continue
		}
		unreachable = append(unreachable, d)
		c.log.Warn().
			Str("host", d.Host).
			Int("port", port(d)).
			Msg("ssh port not open, skipping device")
	}
	return reachable, unreachable, nil
}

func (c *Checker) runNmap(ctx context.Context, targets []string, ports string) (*nmap.Run, error) {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(targets...),
		nmap.WithPorts(ports),
		// Network gear commonly drops ICMP, so treat every target as up
		nmap.WithSkipHostDiscovery(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, err
	}
	if warnings != nil && len(*warnings) > 0 {
		c.log.Debug().Strs("warnings", *warnings).Msg("nmap warnings")
	}
	return result, nil
}

// scanPlan returns the distinct targets and a comma separated port list
func scanPlan(devices []domain.DeviceDescriptor) ([]string, string) {
	seenHost := make(map[string]bool)
	seenPort := make(map[int]bool)
	var targets []string
	var ports []int

	for _, d := range devices {
		if !seenHost[d.Host] {
			seenHost[d.Host] = true
			targets = append(targets, d.Host)
		}
		if p := port(d); !seenPort[p] {
			seenPort[p] = true
			ports = append(ports, p)
		}
	}

	sort.Ints(ports)
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return targets, strings.Join(parts, ",")
}

// openPorts indexes every open host:port in a scan result. Hosts are keyed
// by each address and by any name nmap reports, so inventory entries given
// as DNS names match too.
func openPorts(result *nmap.Run) map[string]bool {
	open := make(map[string]bool)
	if result == nil {
		return open
	}

	for _, host := range result.Hosts {
		if host.Status.State != "" && host.Status.State != "up" {
			continue
		}

		var names []string
		for _, addr := range host.Addresses {
			names = append(names, addr.Addr)
		}
		for _, hn := range host.Hostnames {
			names = append(names, hn.Name)
		}

		for _, p := range host.Ports {
			if p.State.State != "open" {
				continue
			}
			for _, name := range names {
				open[endpoint(name, int(p.ID))] = true
			}
		}
	}
	return open
}

func endpoint(host string, port int) string {
	return strings.ToLower(host) + ":" + strconv.Itoa(port)
}

func port(d domain.DeviceDescriptor) int {
	if d.Port == 0 {
		return domain.DefaultSSHPort
	}
	return d.Port
}
