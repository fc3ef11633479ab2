package announcement

import (
	"time"

	"github.com/google/uuid"
)

// Announcement maps to the announcements table.
type Announcement struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
