// Package store defines the persistence contract for extraction runs. A run
// is one asynchronous pipeline execution: it moves from pending through
// running to completed or failed, and a completed run carries the full result
// and the export artifact paths.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/HexaField/causalmap/pkg/cld"
)

var ErrRunNotFound = errors.New("run not found")

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one extraction run as persisted. Result and Export are nil until the
// run completes.
type Run struct {
	ID        string            `json:"id"`
	Status    RunStatus         `json:"status"`
	Error     string            `json:"error,omitempty"`
	Result    *cld.Result       `json:"result,omitempty"`
	Export    *cld.ExportBundle `json:"export,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RunStore persists extraction runs. Implementations must be safe for
// concurrent use; the server and worker share one store.
type RunStore interface {
	CreateRun(ctx context.Context, id string) error
	MarkRunning(ctx context.Context, id string) error
	CompleteRun(ctx context.Context, id string, result *cld.Result, export *cld.ExportBundle) error
	FailRun(ctx context.Context, id string, message string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
