// Package sessiontest provides a scripted session.Provider for tests.
package sessiontest

import (
	"context"
	"fmt"
	"sync"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/session"
)

// Device scripts how one host behaves
type Device struct {
	// Prompt is returned by CurrentPrompt
	Prompt string
	// Replies maps commands to output
	Replies map[string]string
	// OpenErr fails Open when set
	OpenErr error
	// SendErr fails Send when set
	SendErr error
}

// Provider is a fake session.Provider keyed by device host. Unknown hosts
// fail Open with domain.ErrConnect.
type Provider struct {
	Devices map[string]Device

	// Gate, when set, blocks every Send until a value is received from it
	Gate chan struct{}

	mu     sync.Mutex
	open   int
	peak   int
	opened int
	closed int
}

// NewProvider returns a provider scripted with devices
func NewProvider(devices map[string]Device) *Provider {
	return &Provider{Devices: devices}
}

// Open implements session.Provider
func (p *Provider) Open(_ context.Context, device domain.DeviceDescriptor) (session.Session, error) {
	dev, ok := p.Devices[device.Host]
	if !ok {
		return nil, fmt.Errorf("no route to %s: %w", device.Host, domain.ErrConnect)
	}
	if dev.OpenErr != nil {
		return nil, dev.OpenErr
	}

	p.mu.Lock()
	p.open++
	p.opened++
	if p.open > p.peak {
		p.peak = p.open
	}
	p.mu.Unlock()

	return &fakeSession{provider: p, device: dev}, nil
}

// Peak returns the highest number of sessions open at the same time
func (p *Provider) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// Opened returns the number of sessions successfully opened
func (p *Provider) Opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

// Closed returns the number of sessions closed
func (p *Provider) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeSession struct {
	provider *Provider
	device   Device
	once     sync.Once
}

func (s *fakeSession) CurrentPrompt() string {
	return s.device.Prompt
}

func (s *fakeSession) Send(command string) (string, error) {
	if s.provider.Gate != nil {
		<-s.provider.Gate
	}
	if s.device.SendErr != nil {
		return "", s.device.SendErr
	}
	return s.device.Replies[command], nil
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		s.provider.mu.Lock()
		s.provider.open--
		s.provider.closed++
		s.provider.mu.Unlock()
	})
	return nil
}
