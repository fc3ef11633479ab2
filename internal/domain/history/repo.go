package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospreg/hospreg/internal/domain/patient"
)

// Repository is the append-only archive store. Records are never updated or
// deleted once written.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	List(ctx context.Context, doctorID *uuid.UUID) ([]*Record, error)
	Search(ctx context.Context, q patient.SearchQuery) ([]*Record, error)
}
