package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
)

type fakeAuthUsers struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	sessions map[string]*models.Session
}

func newFakeAuthUsers() *fakeAuthUsers {
	return &fakeAuthUsers{
		users:    make(map[uuid.UUID]*models.User),
		sessions: make(map[string]*models.Session),
	}
}

func (r *fakeAuthUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.IsActive = true
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeAuthUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeAuthUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeAuthUsers) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *fakeAuthUsers) CreateSession(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	clone := *s
	r.sessions[s.RefreshToken] = &clone
	return nil
}

func (r *fakeAuthUsers) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, repository.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeAuthUsers) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *fakeAuthUsers) ListSessions(_ context.Context, principalID uuid.UUID, role string) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		if s.PrincipalID == principalID && s.Role == role && s.ExpiresAt.After(time.Now()) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeAuthUsers) DeleteSessionByID(_ context.Context, sessionID, principalID uuid.UUID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.sessions {
		if s.ID == sessionID && s.PrincipalID == principalID && s.Role == role {
			delete(r.sessions, token)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

type fakeAuthArtists struct {
	mu      sync.Mutex
	artists map[uuid.UUID]*models.Artist
}

func newFakeAuthArtists() *fakeAuthArtists {
	return &fakeAuthArtists{artists: make(map[uuid.UUID]*models.Artist)}
}

func (r *fakeAuthArtists) Create(_ context.Context, a *models.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.artists {
		if existing.Email == a.Email || existing.Username == a.Username {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.New()
	a.IsActive = true
	clone := *a
	r.artists[a.ID] = &clone
	return nil
}

func (r *fakeAuthArtists) GetByEmail(_ context.Context, email string) (*models.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artists {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, repository.ErrArtistNotFound
}

func (r *fakeAuthArtists) GetByID(_ context.Context, id uuid.UUID) (*models.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artists[id]
	if !ok {
		return nil, repository.ErrArtistNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAuthArtists) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	return nil
}

func newAuthService() (*AuthService, *fakeAuthUsers, *fakeAuthArtists) {
	users := newFakeAuthUsers()
	artists := newFakeAuthArtists()
	tm := NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, artists, tm), users, artists
}

func TestRegisterUserAndLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	result, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "Client@Example.com",
		Username: "client",
		Password: "Str0ngPass!word",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "client@example.com", result.User.Email)
	assert.Equal(t, models.RoleUser, result.Principal.Role)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)

	login, err := svc.Login(ctx, LoginInput{
		Email:    "client@example.com",
		Password: "Str0ngPass!word",
		Role:     models.RoleUser,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.Principal.ID)
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	in := RegisterUserInput{Email: "client@example.com", Username: "client", Password: "Str0ngPass!word"}
	_, err := svc.RegisterUser(ctx, in, nil)
	require.NoError(t, err)

	in.Username = "client2"
	_, err = svc.RegisterUser(ctx, in, nil)
	assert.True(t, apperror.IsConflict(err))
}

func TestRegisterArtist(t *testing.T) {
	svc, _, _ := newAuthService()

	result, err := svc.RegisterArtist(context.Background(), RegisterArtistInput{
		Email:    "dj@example.com",
		Username: "dj",
		FullName: "DJ Example",
		Password: "Str0ngPass!word",
		Skills:   []string{"house", "techno"},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Artist)
	assert.Equal(t, models.RoleArtist, result.Principal.Role)
	assert.False(t, result.Artist.IsShadowBanned)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email: "client@example.com", Username: "client", Password: "Str0ngPass!word",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{
		Email: "client@example.com", Password: "wrong-password1A!", Role: models.RoleUser,
	}, nil)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Login(context.Background(), LoginInput{
		Email: "nobody@example.com", Password: "Str0ngPass!word", Role: models.RoleUser,
	}, nil)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, users, _ := newAuthService()
	ctx := context.Background()

	result, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email: "client@example.com", Username: "client", Password: "Str0ngPass!word",
	}, nil)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, result.TokenPair.RefreshToken, nil)
	require.NoError(t, err)
	assert.Equal(t, result.Principal, refreshed.Principal)
	assert.NotEqual(t, result.TokenPair.RefreshToken, refreshed.TokenPair.RefreshToken)

	// старый токен больше не действует
	_, err = users.GetSessionByToken(ctx, result.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = svc.Refresh(ctx, result.TokenPair.RefreshToken, nil)
	require.Error(t, err)
}

func TestLogout(t *testing.T) {
	svc, users, _ := newAuthService()
	ctx := context.Background()

	result, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email: "client@example.com", Username: "client", Password: "Str0ngPass!word",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.TokenPair.RefreshToken))
	_, err = users.GetSessionByToken(ctx, result.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionsAudit(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	result, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email: "client@example.com", Username: "client", Password: "Str0ngPass!word",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{
		Email: "client@example.com", Password: "Str0ngPass!word", Role: models.RoleUser,
	}, map[string]string{"user_agent": "test-agent", "ip": "127.0.0.1"})
	require.NoError(t, err)

	sessions, err := svc.ListSessions(ctx, result.Principal)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.NoError(t, svc.DeleteSessionByID(ctx, result.Principal, sessions[0].ID))

	sessions, err = svc.ListSessions(ctx, result.Principal)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	err = svc.DeleteSessionByID(ctx, result.Principal, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 24*time.Hour)
	principal := models.Principal{ID: uuid.New(), Role: models.RoleArtist}

	pair, _, _, err := tm.GeneratePair(principal)
	require.NoError(t, err)

	parsed, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, principal, parsed)

	_, err = tm.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	_, err = tm.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}
