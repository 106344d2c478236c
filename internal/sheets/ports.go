package sheets

import (
	"context"

	"kaffee/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// EntryWriter appends one joined consumption row to the mirror.
	EntryWriter interface {
		AppendEntry(ctx context.Context, row core.ConsumptionRow) (rowRef string, err error)
	}

	// EntryRemover removes a mirrored row by entry id.
	EntryRemover interface {
		RemoveEntry(ctx context.Context, entryID int64) error
	}

	// Mirror is the full surface the sync worker needs.
	Mirror interface {
		EntryWriter
		EntryRemover
	}
)
