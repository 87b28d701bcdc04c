package model

import "time"

// RunStatus tracks an import run's lifecycle in the store.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ImportRun is the persisted record of one pipeline run.
type ImportRun struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Report    *RunReport `json:"report,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
