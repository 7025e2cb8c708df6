package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"fleetpoll/internal/domain"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeToText(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func timeToNull(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: timeToText(t), Valid: true}
}

func nullToTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, ns.String)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// runColumns is the column list shared by run queries.
// MUST match runRow.scanArgs() and runInsertArgs() order.
const runColumns = `id, kind, started_at, finished_at, devices, succeeded`

// runRow holds the columns of a run query for scanning
type runRow struct {
	ID         string
	Kind       string
	StartedAt  string
	FinishedAt sql.NullString
	Devices    int
	Succeeded  int
}

func (r *runRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.Kind,
		&r.StartedAt,
		&r.FinishedAt,
		&r.Devices,
		&r.Succeeded,
	}
}

func (r *runRow) toDomain() (domain.Run, error) {
	started, err := time.Parse(timeLayout, r.StartedAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
	}
	finished, err := nullToTime(r.FinishedAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse finished_at of run %s: %w", r.ID, err)
	}

	return domain.Run{
		ID:         r.ID,
		Kind:       domain.RunKind(r.Kind),
		StartedAt:  started,
		FinishedAt: finished,
		Devices:    r.Devices,
		Succeeded:  r.Succeeded,
	}, nil
}

func runInsertArgs(run *domain.Run) []any {
	return []any{
		run.ID,
		string(run.Kind),
		timeToText(run.StartedAt),
		timeToNull(run.FinishedAt),
		run.Devices,
		run.Succeeded,
	}
}
