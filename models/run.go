package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type RunKind string

const (
	RunKindFetch   RunKind = "fetch"
	RunKindHarvest RunKind = "harvest"
	RunKindParse   RunKind = "parse"
)

// Run records one fetch/harvest/parse pass over a batch.
type Run struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	BatchID        string     `json:"batch_id" db:"batch_id"`
	Kind           RunKind    `json:"kind" db:"kind"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	PagesTotal     int        `json:"pages_total" db:"pages_total"`
	PagesFailed    int        `json:"pages_failed" db:"pages_failed"`
	RecordsWritten int        `json:"records_written" db:"records_written"`
}
