package announcement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/platform/notification"
	"github.com/hospreg/hospreg/internal/validation"
)

type mockRepo struct {
	saved []*Announcement
}

func (m *mockRepo) Create(_ context.Context, a *Announcement) error {
	a.ID = uuid.New()
	cp := *a
	m.saved = append(m.saved, &cp)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Announcement, int, error) {
	return m.saved, len(m.saved), nil
}

type mockRecipients struct {
	recipients []Recipient
}

func (m *mockRecipients) ListRecipients(_ context.Context) ([]Recipient, error) {
	return m.recipients, nil
}

func newFixture(recipients []Recipient, failFor map[string]bool) (*Service, *mockRepo, *notification.MockEmailSender) {
	repo := &mockRepo{}
	mailer := &notification.MockEmailSender{FailFor: failFor}
	svc := NewService(repo, &mockRecipients{recipients: recipients}, mailer, zerolog.Nop())
	return svc, repo, mailer
}

func mainDoctor() *staff.Staff {
	return &staff.Staff{ID: uuid.New(), Role: staff.RoleMainDoctor}
}

func TestPublishRequiresMainDoctor(t *testing.T) {
	svc, repo, _ := newFixture(nil, nil)

	nurse := &staff.Staff{ID: uuid.New(), Role: staff.RoleNurse}
	_, err := svc.Publish(context.Background(), nurse, "Увага", "Текст")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, repo.saved)
}

func TestPublishValidation(t *testing.T) {
	svc, repo, _ := newFixture(nil, nil)

	_, err := svc.Publish(context.Background(), mainDoctor(), " ", "")
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("title"))
	assert.True(t, fe.Has("content"))
	assert.Empty(t, repo.saved)
}

func TestPublishFansOutToAllRecipients(t *testing.T) {
	recipients := []Recipient{
		{FullName: "А", Email: "a@hospital.ua"},
		{FullName: "Б", Email: "b@hospital.ua"},
		{FullName: "В", Email: ""},
	}
	svc, repo, mailer := newFixture(recipients, nil)

	a, err := svc.Publish(context.Background(), mainDoctor(), "Нарада", "О 9:00 у залі")
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, a.ID, repo.saved[0].ID)

	calls := mailer.Calls()
	require.Len(t, calls, 2, "staff without an email address are skipped")
	for _, call := range calls {
		assert.Equal(t, "Нове оголошення: Нарада", call.Subject)
		assert.Equal(t, "О 9:00 у залі", call.Body)
	}
}

func TestPublishSurvivesDeliveryFailure(t *testing.T) {
	recipients := []Recipient{
		{FullName: "А", Email: "a@hospital.ua"},
		{FullName: "Б", Email: "broken@hospital.ua"},
		{FullName: "В", Email: "c@hospital.ua"},
	}
	svc, repo, mailer := newFixture(recipients, map[string]bool{"broken@hospital.ua": true})

	_, err := svc.Publish(context.Background(), mainDoctor(), "Увага", "Текст")
	require.NoError(t, err, "a failed delivery must not fail the publish")
	assert.Len(t, repo.saved, 1)

	// All three deliveries were attempted despite the middle one failing.
	assert.Len(t, mailer.Calls(), 3)
}
