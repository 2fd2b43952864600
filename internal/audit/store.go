package audit

import (
	"context"
	"time"

	"github.com/reqwatch/reqwatch/api"
)

// Store defines the interface for log record persistence and retrieval.
type Store interface {
	// Write appends a log record. Records are immutable once written.
	Write(ctx context.Context, record *api.LogRecord) error

	// Query retrieves one page of log records matching the filter,
	// newest first.
	Query(ctx context.Context, filter api.QueryFilter) (*api.LogPage, error)

	// Recent returns the most recent records, newest first, without
	// filtering or pagination.
	Recent(ctx context.Context, limit int) ([]*api.LogRecord, error)

	// Stats computes aggregate statistics with trailing windows measured
	// back from now. Safe to call concurrently with Write.
	Stats(ctx context.Context, now time.Time) (*api.RequestStats, error)

	// Subscribe returns a channel that receives new log records in real
	// time. The returned function cancels the subscription.
	Subscribe(ctx context.Context) (<-chan *api.LogRecord, func())

	// Close shuts down the store.
	Close() error
}

// Directory manages the principal records that log entries may reference.
type Directory interface {
	// PutPrincipal inserts or updates a principal by username and returns
	// its ID.
	PutPrincipal(ctx context.Context, p *api.Principal) (int64, error)

	// FindPrincipal looks up a principal by exact username. Returns
	// (nil, nil) when absent.
	FindPrincipal(ctx context.Context, username string) (*api.Principal, error)

	// DeletePrincipal removes a principal. Log records referencing it
	// keep existing with a null user.
	DeletePrincipal(ctx context.Context, id int64) error
}
