package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, doctorID *uuid.UUID) ([]*Patient, error)
	Search(ctx context.Context, q SearchQuery) ([]*Patient, error)
	FindBedConflicts(ctx context.Context, ward, bed int, from, to time.Time, excludeID uuid.UUID) ([]*Patient, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}
