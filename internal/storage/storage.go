package storage

import (
	"context"

	"vaultScope/internal/model"
)

// Storage defines a sink for feed events.
type Storage interface {
	PutEventBatch(ctx context.Context, events []model.Event) error
}
