package i

import (
	"context"

	"github.com/beka-birhanu/vinom-lab/game/episode"
	"github.com/google/uuid"
)

// EpisodeRepo defines the interface for episode persistence operations.
type EpisodeRepo interface {
	// Save inserts or updates an episode record.
	// A record with an existing ID replaces the stored one.
	Save(ctx context.Context, r episode.Record) error

	// ByID retrieves an episode record by its ID.
	// Returns an error if the record is not found or in case of an unexpected error.
	ByID(ctx context.Context, id uuid.UUID) (*episode.Record, error)

	// Recent returns up to `limit` records, most recently ended first.
	Recent(ctx context.Context, limit int64) ([]episode.Record, error)
}
