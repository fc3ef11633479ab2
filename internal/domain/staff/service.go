package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospreg/hospreg/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrAccessDenied       = errors.New("access denied")
	ErrSelfDeletion       = errors.New("cannot delete own account")
	ErrHasPatients        = errors.New("staff member has active patients")
)

// PatientCounter reports how many admitted patients are assigned to a doctor.
// Wired in main to avoid a dependency on the patient package.
type PatientCounter interface {
	CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}

// Input carries the registration form fields for creating or updating a staff
// member. On update an empty Password keeps the stored hash.
type Input struct {
	FullName  string
	Login     string
	Phone     string
	Position  string
	Specialty string
	Email     string
	Password  string
}

type Service struct {
	repo     Repository
	patients PatientCounter
	log      zerolog.Logger
}

func NewService(repo Repository, patients PatientCounter, log zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, log: log}
}

// Authenticate verifies the login/password pair. Unknown logins and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*Staff, error) {
	member, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return member, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new staff member. Only the main doctor may do this.
func (s *Service) Create(ctx context.Context, actor *Staff, in Input) (*Staff, error) {
	if !actor.CanManagePersonnel() {
		return nil, ErrAccessDenied
	}
	if err := s.validate(ctx, in, uuid.Nil, true); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member := &Staff{
		FullName:     strings.TrimSpace(in.FullName),
		Login:        strings.TrimSpace(in.Login),
		Phone:        strings.TrimSpace(in.Phone),
		Position:     strings.TrimSpace(in.Position),
		Specialty:    strings.TrimSpace(in.Specialty),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	s.log.Info().Str("staff_id", member.ID.String()).Str("position", member.Position).
		Msg("staff member registered")
	return member, nil
}

// Update rewrites a staff record. An empty password keeps the current hash.
func (s *Service) Update(ctx context.Context, actor *Staff, id uuid.UUID, in Input) (*Staff, error) {
	if !actor.CanManagePersonnel() {
		return nil, ErrAccessDenied
	}
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in, id, false); err != nil {
		return nil, err
	}

	member.FullName = strings.TrimSpace(in.FullName)
	member.Login = strings.TrimSpace(in.Login)
	member.Phone = strings.TrimSpace(in.Phone)
	member.Position = strings.TrimSpace(in.Position)
	member.Specialty = strings.TrimSpace(in.Specialty)
	member.Email = strings.TrimSpace(in.Email)
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		member.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a staff member. Self-deletion is rejected, as is deleting a
// doctor who still has admitted patients assigned.
func (s *Service) Delete(ctx context.Context, actor *Staff, id uuid.UUID) error {
	if !actor.CanManagePersonnel() {
		return ErrAccessDenied
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanDeletePersonnel(target) {
		if actor != nil && actor.ID == target.ID {
			return ErrSelfDeletion
		}
		return ErrAccessDenied
	}
	if target.IsDoctor() || target.IsMainDoctor() {
		n, err := s.patients.CountActiveByDoctor(ctx, target.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasPatients
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("staff_id", id.String()).Msg("staff member deleted")
	return nil
}

func (s *Service) List(ctx context.Context) ([]*Staff, error) {
	return s.repo.List(ctx)
}

// ListOthers lists all staff except the actor, for the personnel management
// page where the actor must not see (or delete) their own row.
func (s *Service) ListOthers(ctx context.Context, actor *Staff) ([]*Staff, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Staff, 0, len(all))
	for _, m := range all {
		if actor != nil && m.ID == actor.ID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Doctors lists the staff members a patient can be assigned to.
func (s *Service) Doctors(ctx context.Context) ([]*Staff, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Staff, 0, len(all))
	for _, m := range all {
		if m.IsDoctor() || m.IsMainDoctor() {
			out = append(out, m)
		}
	}
	return out, nil
}

// Filter narrows a personnel list by a single field, or across every field
// when the field is "all" or unrecognized. Matching is a case-insensitive
// substring test; a blank query returns the list unchanged.
func (s *Service) Filter(members []*Staff, field, query string) []*Staff {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return members
	}

	matches := func(m *Staff) bool {
		contains := func(v string) bool {
			return strings.Contains(strings.ToLower(v), query)
		}
		switch field {
		case "name":
			return contains(m.FullName)
		case "login":
			return contains(m.Login)
		case "position":
			return contains(m.Position)
		case "specialty":
			return contains(m.Specialty)
		case "email":
			return contains(m.Email)
		case "phone":
			return contains(m.Phone)
		default:
			return contains(m.FullName) || contains(m.Login) || contains(m.Position) ||
				contains(m.Specialty) || contains(m.Email) || contains(m.Phone)
		}
	}

	out := make([]*Staff, 0, len(members))
	for _, m := range members {
		if matches(m) {
			out = append(out, m)
		}
	}
	return out
}

// EnsureMainDoctor seeds the initial main doctor account when no staff member
// with the main doctor position exists yet. Idempotent across restarts.
func (s *Service) EnsureMainDoctor(ctx context.Context, login, password string) error {
	exists, err := s.repo.HasMainDoctor(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	member := &Staff{
		FullName:     "Адміністратор",
		Login:        login,
		Position:     "Головний лікар",
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("seed main doctor: %w", err)
	}
	s.log.Info().Str("login", login).Msg("seeded initial main doctor account")
	return nil
}

func (s *Service) validate(ctx context.Context, in Input, selfID uuid.UUID, requirePassword bool) error {
	errs := validation.FieldErrors{}

	if strings.TrimSpace(in.FullName) == "" {
		errs.Add("fullName", "повне ім'я обов'язкове")
	}
	if strings.TrimSpace(in.Login) == "" {
		errs.Add("login", "логін обов'язковий")
	}
	if strings.TrimSpace(in.Position) == "" {
		errs.Add("position", "посада обов'язкова")
	}
	if requirePassword && in.Password == "" {
		errs.Add("password", "пароль обов'язковий")
	}

	if login := strings.TrimSpace(in.Login); login != "" && !errs.Has("login") {
		existing, err := s.repo.GetByLogin(ctx, login)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil && existing.ID != selfID {
			errs.Add("login", "логін вже використовується")
		}
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil && existing.ID != selfID {
			errs.Add("email", "електронна адреса вже використовується")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
