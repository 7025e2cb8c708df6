package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunKind names the collector that produced a run
type RunKind string

const (
	RunKindBackup    RunKind = "backup"
	RunKindNeighbors RunKind = "neighbors"
	RunKindIdentity  RunKind = "identity"
)

// Run records one collector invocation across the inventory
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       RunKind   `json:"kind" yaml:"kind"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Devices    int       `json:"devices" yaml:"devices"`
	Succeeded  int       `json:"succeeded" yaml:"succeeded"`
}

// NewRun starts a run with a fresh identifier
func NewRun(kind RunKind, devices int, now time.Time) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		StartedAt: now,
		Devices:   devices,
	}
}

// Finish stamps the run as complete
func (r *Run) Finish(succeeded int, now time.Time) {
	r.Succeeded = succeeded
	r.FinishedAt = now
}

// Failed returns the number of devices that did not produce a fact
func (r *Run) Failed() int {
	return r.Devices - r.Succeeded
}
