package transfer

import (
	"context"

	"redirsync/pkg/redirect"
	"redirsync/pkg/remote"
)

// RemoteClient is the API surface the engine drives. pkg/remote
// provides the HTTP implementation; tests stub it.
type RemoteClient interface {
	ExportPage(ctx context.Context, cursor string) (*remote.Page, error)
	ImportBatch(ctx context.Context, records []redirect.Record) error
	DeleteBatch(ctx context.Context, keys []string) error
	ListKeys(ctx context.Context) ([]string, error)
}

// Resume summarizes a found checkpoint for the resume decision
type Resume struct {
	Counter int
	Cursor  string
}

// ConfirmResume decides whether to continue from a saved checkpoint.
// Injected so the engine stays decoupled from terminal I/O; tests use
// a constant-true or constant-false stub.
type ConfirmResume func(saved Resume) bool

// AlwaysResume is the non-interactive default decision
func AlwaysResume(Resume) bool { return true }
