package announcement

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	List(ctx context.Context, limit, offset int) ([]*Announcement, int, error)
}
