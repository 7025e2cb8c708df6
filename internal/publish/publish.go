// Package publish emits collected facts as JSON events on NATS.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"fleetpoll/internal/domain"
)

// DefaultSubjectPrefix is used when no prefix is configured
const DefaultSubjectPrefix = "fleetpoll.facts"

// Event types
const (
	EventTypeNeighbors = "fleetpoll.fact.neighbors"
	EventTypeIdentity  = "fleetpoll.fact.identity"
)

// Publisher hands facts to downstream consumers
type Publisher interface {
	PublishNeighbors(ctx context.Context, runID string, facts []domain.CdpNeighborFact) error
	PublishIdentity(ctx context.Context, runID string, facts []domain.DeviceIdentityFact) error
}

// Event is the envelope of every published fact
type Event struct {
	SpecVersion     string    `json:"specversion"`
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Type            string    `json:"type"`
	DataContentType string    `json:"datacontenttype"`
	Subject         string    `json:"subject"`
	Time            time.Time `json:"time"`
	RunID           string    `json:"runid"`
	Data            any       `json:"data"`
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATS publishes one event per fact
type NATS struct {
	conn   Conn
	prefix string
	now    func() time.Time
}

// New wraps an existing connection
func New(conn Conn, prefix string) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{conn: conn, prefix: prefix, now: time.Now}
}

// Connect dials url and returns a publisher plus the connection, which the
// caller must drain or close.
func Connect(url, prefix string, opts ...nats.Option) (*NATS, *nats.Conn, error) {
	opts = append([]nats.Option{nats.Name("fleetpoll")}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return New(nc, prefix), nc, nil
}

// Subject returns the subject facts of one kind are published on
func (p *NATS) Subject(kind domain.RunKind) string {
	return p.prefix + "." + string(kind)
}

// PublishNeighbors implements Publisher
func (p *NATS) PublishNeighbors(ctx context.Context, runID string, facts []domain.CdpNeighborFact) error {
	var errs []error
	for _, f := range facts {
		if err := p.publish(ctx, domain.RunKindNeighbors, EventTypeNeighbors, runID, f); err != nil {
			errs = append(errs, fmt.Errorf("neighbors of %s: %w", f.Device, err))
		}
	}
	return errors.Join(errs...)
}

// PublishIdentity implements Publisher
func (p *NATS) PublishIdentity(ctx context.Context, runID string, facts []domain.DeviceIdentityFact) error {
	var errs []error
	for _, f := range facts {
		if err := p.publish(ctx, domain.RunKindIdentity, EventTypeIdentity, runID, f); err != nil {
			errs = append(errs, fmt.Errorf("identity of %s: %w", f.Device, err))
		}
	}
	return errors.Join(errs...)
}

func (p *NATS) publish(ctx context.Context, kind domain.RunKind, eventType, runID string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := Event{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          "fleetpoll",
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.Subject(kind),
		Time:            p.now().UTC(),
		RunID:           runID,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(event.Subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject, err)
	}
	return nil
}
