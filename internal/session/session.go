// Package session defines the interactive device session contract used by
// the dispatcher, and provides an SSH implementation of it.
//
// A Session is one authenticated CLI login scoped to a single command
// exchange: open, read the prompt, send, close. Providers classify failures
// with the domain sentinels (ErrAuth, ErrConnect, ErrTimeout) so callers can
// tag results without inspecting transport details.
package session

import (
	"context"

	"fleetpoll/internal/domain"
)

// Provider opens sessions to devices
type Provider interface {
	// Open connects, authenticates and escalates privilege. Errors wrap
	// domain.ErrAuth, domain.ErrConnect or domain.ErrTimeout.
	Open(ctx context.Context, device domain.DeviceDescriptor) (Session, error)
}

// Session is a live interactive CLI
type Session interface {
	// CurrentPrompt returns the last prompt the device printed
	CurrentPrompt() string

	// Send runs a command and returns its reply without the echoed command
	// or the trailing prompt. Errors wrap domain.ErrTimeout when the device
	// stops answering.
	Send(command string) (string, error)

	// Close logs out. Calling it more than once is safe.
	Close() error
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, device domain.DeviceDescriptor) (Session, error)

// Open implements Provider
func (f ProviderFunc) Open(ctx context.Context, device domain.DeviceDescriptor) (Session, error) {
	return f(ctx, device)
}
