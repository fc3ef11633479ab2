package staff

import (
	"time"

	"github.com/google/uuid"
)

// Staff maps to the staff table. Position keeps the label exactly as entered;
// Role is derived from it once at the store boundary and is the only thing
// authorization code looks at.
type Staff struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Login        string    `db:"login" json:"login"`
	Phone        string    `db:"phone" json:"phone"`
	Position     string    `db:"position" json:"position"`
	Specialty    string    `db:"specialty" json:"specialty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"-" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the view of a staff member safe to hand to pages and lists.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Login     string    `json:"login"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	Specialty string    `json:"specialty"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

func (s *Staff) Summary() Summary {
	return Summary{
		ID:        s.ID,
		FullName:  s.FullName,
		Login:     s.Login,
		Phone:     s.Phone,
		Position:  s.Position,
		Specialty: s.Specialty,
		Email:     s.Email,
		Role:      s.Role,
	}
}
