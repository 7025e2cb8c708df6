package repository

import (
	"context"
	"errors"

	"fleetpoll/internal/domain"
)

// ErrNotFound is returned when a requested run does not exist
var ErrNotFound = errors.New("not found")

// FactStore persists collector runs and the facts they produced
type FactStore interface {
	// Write operations
	SaveRun(ctx context.Context, run *domain.Run) error
	SaveNeighborFacts(ctx context.Context, runID string, facts []domain.CdpNeighborFact) error
	SaveIdentityFacts(ctx context.Context, runID string, facts []domain.DeviceIdentityFact) error

	// Read operations
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.Run, error)
	NeighborFacts(ctx context.Context, runID string) ([]domain.CdpNeighborFact, error)
	IdentityFacts(ctx context.Context, runID string) ([]domain.DeviceIdentityFact, error)

	// Close releases resources
	Close() error
}
