package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospreg/hospreg/internal/validation"
)

type mockRepo struct {
	byID map[uuid.UUID]*Staff
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Staff)}
}

func (m *mockRepo) Create(_ context.Context, s *Staff) error {
	s.ID = uuid.New()
	s.Role = ParseRole(s.Position)
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	if s, ok := m.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByLogin(_ context.Context, login string) (*Staff, error) {
	for _, s := range m.byID {
		if s.Login == login {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Staff, error) {
	for _, s := range m.byID {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, s *Staff) error {
	if _, ok := m.byID[s.ID]; !ok {
		return ErrNotFound
	}
	s.Role = ParseRole(s.Position)
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*Staff, error) {
	out := make([]*Staff, 0, len(m.byID))
	for _, s := range m.byID {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) HasMainDoctor(_ context.Context) (bool, error) {
	for _, s := range m.byID {
		if s.Role == RoleMainDoctor {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) seed(t *testing.T, position, login, password string) *Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := &Staff{
		FullName:     "Тест " + login,
		Login:        login,
		Position:     position,
		PasswordHash: string(hash),
	}
	require.NoError(t, m.Create(context.Background(), s))
	return s
}

type mockPatientCounter struct {
	counts map[uuid.UUID]int
}

func (m *mockPatientCounter) CountActiveByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return m.counts[doctorID], nil
}

func newTestService(repo *mockRepo, counts map[uuid.UUID]int) *Service {
	return NewService(repo, &mockPatientCounter{counts: counts}, zerolog.Nop())
}

func TestAuthenticate(t *testing.T) {
	repo := newMockRepo()
	seeded := repo.seed(t, "Лікар", "dr.house", "vicodin")
	svc := newTestService(repo, nil)
	ctx := context.Background()

	member, err := svc.Authenticate(ctx, "dr.house", "vicodin")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, member.ID)
	assert.Equal(t, RoleDoctor, member.Role)

	_, err = svc.Authenticate(ctx, "dr.house", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "vicodin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateRequiresMainDoctor(t *testing.T) {
	repo := newMockRepo()
	nurse := repo.seed(t, "Медсестра/Медбрат", "nurse1", "pw")
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), nurse, Input{
		FullName: "X", Login: "x", Position: "Лікар", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCreateValidation(t *testing.T) {
	repo := newMockRepo()
	main := repo.seed(t, "Головний лікар", "chief", "pw")
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, main, Input{})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("fullName"))
	assert.True(t, fe.Has("login"))
	assert.True(t, fe.Has("position"))
	assert.True(t, fe.Has("password"))

	// Duplicate login
	_, err = svc.Create(ctx, main, Input{
		FullName: "Дубль", Login: "chief", Position: "Лікар", Password: "pw",
	})
	fe, ok = validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("login"))
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMockRepo()
	main := repo.seed(t, "Головний лікар", "chief", "pw")
	svc := newTestService(repo, nil)

	member, err := svc.Create(context.Background(), main, Input{
		FullName: "Нова", Login: "newdoc", Position: "Лікар", Password: "secret",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret", member.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte("secret")))
}

func TestUpdateKeepsHashOnBlankPassword(t *testing.T) {
	repo := newMockRepo()
	main := repo.seed(t, "Головний лікар", "chief", "pw")
	target := repo.seed(t, "Лікар", "doc", "original")
	svc := newTestService(repo, nil)

	updated, err := svc.Update(context.Background(), main, target.ID, Input{
		FullName: "Оновлений", Login: "doc", Position: "Лікар", Password: "",
	})
	require.NoError(t, err)
	assert.Equal(t, target.PasswordHash, updated.PasswordHash)
	assert.Equal(t, "Оновлений", updated.FullName)
}

func TestDeleteGuards(t *testing.T) {
	repo := newMockRepo()
	main := repo.seed(t, "Головний лікар", "chief", "pw")
	busy := repo.seed(t, "Лікар", "busy", "pw")
	free := repo.seed(t, "Лікар", "free", "pw")
	svc := newTestService(repo, map[uuid.UUID]int{busy.ID: 3})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, main, main.ID), ErrSelfDeletion)
	assert.ErrorIs(t, svc.Delete(ctx, main, busy.ID), ErrHasPatients)
	assert.NoError(t, svc.Delete(ctx, main, free.ID))

	_, err := repo.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOthersExcludesActor(t *testing.T) {
	repo := newMockRepo()
	main := repo.seed(t, "Головний лікар", "chief", "pw")
	repo.seed(t, "Лікар", "doc", "pw")
	repo.seed(t, "Медсестра/Медбрат", "nurse", "pw")
	svc := newTestService(repo, nil)

	others, err := svc.ListOthers(context.Background(), main)
	require.NoError(t, err)
	assert.Len(t, others, 2)
	for _, m := range others {
		assert.NotEqual(t, main.ID, m.ID)
	}
}

func TestFilter(t *testing.T) {
	repo := newMockRepo()
	repo.seed(t, "Лікар", "kovalenko", "pw")
	repo.seed(t, "Медсестра/Медбрат", "shevchenko", "pw")
	svc := newTestService(repo, nil)

	members, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Len(t, svc.Filter(members, "login", "koval"), 1)
	assert.Len(t, svc.Filter(members, "position", "лікар"), 1)
	assert.Len(t, svc.Filter(members, "all", "shev"), 1)
	assert.Len(t, svc.Filter(members, "login", "nobody"), 0)
	// Blank query keeps everything
	assert.Len(t, svc.Filter(members, "login", "  "), 2)
	// Unknown field falls back to all-fields search
	assert.Len(t, svc.Filter(members, "bogus", "koval"), 1)
}

func TestEnsureMainDoctor(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureMainDoctor(ctx, "admin", "secret"))
	member, err := svc.Authenticate(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, RoleMainDoctor, member.Role)

	// Second run is a no-op
	require.NoError(t, svc.EnsureMainDoctor(ctx, "admin", "other"))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
