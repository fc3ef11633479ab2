package announcement

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/platform/notification"
	"github.com/hospreg/hospreg/internal/validation"
)

var ErrAccessDenied = errors.New("access denied")

const subjectPrefix = "Нове оголошення: "

// Recipient is a staff member the fan-out should notify.
type Recipient struct {
	FullName string
	Email    string
}

// RecipientLister supplies the notification audience. Wired in main from the
// staff service.
type RecipientLister interface {
	ListRecipients(ctx context.Context) ([]Recipient, error)
}

type Service struct {
	repo       Repository
	recipients RecipientLister
	mailer     notification.EmailSender
	log        zerolog.Logger
}

func NewService(repo Repository, recipients RecipientLister, mailer notification.EmailSender, log zerolog.Logger) *Service {
	return &Service{repo: repo, recipients: recipients, mailer: mailer, log: log}
}

// Publish saves the announcement and then emails every staff member who has
// an address on file. The save is the operation; delivery failures are logged
// per recipient and never undo it or stop the remaining deliveries.
func (s *Service) Publish(ctx context.Context, actor *staff.Staff, title, content string) (*Announcement, error) {
	if !actor.CanManagePersonnel() {
		return nil, ErrAccessDenied
	}

	errs := validation.FieldErrors{}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		errs.Add("title", "заголовок обов'язковий")
	}
	if content == "" {
		errs.Add("content", "текст оголошення обов'язковий")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	a := &Announcement{Title: title, Content: content}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	recipients, err := s.recipients.ListRecipients(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list announcement recipients")
		return a, nil
	}

	subject := subjectPrefix + title
	for _, rcpt := range recipients {
		if rcpt.Email == "" {
			continue
		}
		if err := s.mailer.SendEmail(ctx, rcpt.Email, subject, content); err != nil {
			s.log.Error().Err(err).Str("recipient", rcpt.Email).
				Str("announcement_id", a.ID.String()).Msg("announcement delivery failed")
		}
	}
	s.log.Info().Str("announcement_id", a.ID.String()).
		Int("recipients", len(recipients)).Msg("announcement published")
	return a, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Announcement, int, error) {
	return s.repo.List(ctx, limit, offset)
}
