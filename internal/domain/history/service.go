package history

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/patient"
	"github.com/hospreg/hospreg/internal/domain/staff"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Archive writes a completed stay into the history. Honors the transaction in
// ctx, so a failed discharge leaves no archive copy behind.
func (s *Service) Archive(ctx context.Context, rec *Record) error {
	return s.repo.Create(ctx, rec)
}

// Search lists archived stays matching a filter. Plain doctors see only stays
// they supervised; the main doctor sees the full archive. The filter semantics
// match the admitted-patients search, including the fail-soft empty list on an
// unparseable date.
func (s *Service) Search(ctx context.Context, actor *staff.Staff, rawField, rawQuery string) ([]*Record, error) {
	var scope *uuid.UUID
	if actor.IsDoctor() {
		id := actor.ID
		scope = &id
	}

	rawQuery = strings.TrimSpace(rawQuery)
	if rawQuery == "" {
		return s.repo.List(ctx, scope)
	}

	q := patient.SearchQuery{Field: patient.ParseFilterField(rawField), Text: rawQuery, DoctorID: scope}
	if q.Field.IsDate() {
		from, to, err := patient.DayRange(rawQuery)
		if err != nil {
			return []*Record{}, nil
		}
		q.From, q.To = from, to
	} else if q.Field == patient.FilterAll {
		// A date-shaped term under "all" searches both date fields and
		// never falls back to text.
		if from, to, err := patient.DayRange(rawQuery); err == nil {
			q.From, q.To = from, to
		}
	}
	return s.repo.Search(ctx, q)
}
