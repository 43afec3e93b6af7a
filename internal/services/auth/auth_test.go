package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/techblog/internal/lib/jwt"
	"github.com/magabrotheeeer/techblog/internal/lib/password"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/storage/memory"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

type staticRunner struct {
	st storage.Storage
}

func (r staticRunner) Current() storage.Storage       { return r.st }
func (r staticRunner) Sessions() storage.SessionStore { return r.st.Sessions() }

func (r staticRunner) ReportFailure(supervisor.Capability, error) bool { return false }

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(sessionID string, userID int64) (string, error) {
	args := m.Called(sessionID, userID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*jwt.SessionClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.SessionClaims), args.Error(1)
}

func newService(t *testing.T, tokens jwt.Maker) (*Service, *memory.Storage) {
	t.Helper()
	st, err := memory.NewSeeded(context.Background(), storage.Admin{})
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(staticRunner{st: st}, tokens, time.Hour, log, time.Second), st
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "admin", password: "admin123"},
		{name: "username is case insensitive", username: "ADMIN", password: "admin123"},
		{name: "wrong password", username: "admin", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "admin123", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newService(t, jwt.NewJWTMaker("secret", time.Hour))

			token, user, expires, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.True(t, user.IsAdmin)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

			n, err := st.Sessions().Prune(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	svc, _ := newService(t, jwt.NewJWTMaker("secret", time.Hour))
	ctx := context.Background()

	token, _, _, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	tokens := new(JwtMakerMock)
	svc, _ := newService(t, tokens)
	tokens.On("ParseToken", "bad").Return(nil, errors.New("signature is invalid"))

	_, err := svc.Authenticate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	tokens.AssertExpectations(t)
}

func TestAuthenticate_SessionUserMismatch(t *testing.T) {
	tokens := new(JwtMakerMock)
	svc, st := newService(t, tokens)
	ctx := context.Background()

	require.NoError(t, st.Sessions().Set(ctx, models.Session{ID: "sid", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))
	tokens.On("ParseToken", "forged").Return(&jwt.SessionClaims{SessionID: "sid", UserID: 99}, nil)

	_, err := svc.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	tokens := new(JwtMakerMock)
	svc, st := newService(t, tokens)
	ctx := context.Background()

	require.NoError(t, st.Sessions().Set(ctx, models.Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}))
	tokens.On("ParseToken", "old-token").Return(&jwt.SessionClaims{SessionID: "old", UserID: 1}, nil)

	_, err := svc.Authenticate(ctx, "old-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegister(t *testing.T) {
	svc, st := newService(t, jwt.NewJWTMaker("secret", time.Hour))
	ctx := context.Background()

	user, err := svc.Register(ctx, models.RegisterRequest{Username: "writer", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "writer", user.DisplayName)
	assert.False(t, user.IsAdmin)

	stored, err := st.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, password.CompareHash(stored.PasswordHash, "secret1"))

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "Writer", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newService(t, jwt.NewJWTMaker("secret", time.Hour))
	ctx := context.Background()

	name := "Site Owner"
	newPassword := "changed-password"
	user, err := svc.UpdateProfile(ctx, 1, models.ProfileRequest{DisplayName: &name, Password: &newPassword})
	require.NoError(t, err)
	assert.Equal(t, "Site Owner", user.DisplayName)

	_, _, _, err = svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = svc.Login(ctx, "admin", newPassword)
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, 404, models.ProfileRequest{DisplayName: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPruneSessions(t *testing.T) {
	svc, st := newService(t, jwt.NewJWTMaker("secret", time.Hour))
	ctx := context.Background()

	require.NoError(t, st.Sessions().Set(ctx, models.Session{ID: "a", UserID: 1, ExpiresAt: time.Now().Add(-time.Second)}))
	require.NoError(t, st.Sessions().Set(ctx, models.Session{ID: "b", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := svc.PruneSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
