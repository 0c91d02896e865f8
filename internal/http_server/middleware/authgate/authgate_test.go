package authgate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookly/internal/lib/tokens"
	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBlocklist struct {
	revoked map[string]bool
}

func (f *fakeBlocklist) Contains(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeUsers struct {
	users map[string]models.User
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

type gateFixture struct {
	gate      *Gate
	codec     *tokens.SessionCodec
	blocklist *fakeBlocklist
	users     *fakeUsers
	user      models.User
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	codec := tokens.NewSessionCodec("unit-test-secret", time.Hour, 48*time.Hour)

	user := models.User{
		UID:        uuid.New(),
		Username:   "jsmith",
		Email:      "a@x.com",
		Role:       models.RoleUser,
		IsVerified: true,
	}

	blocklist := &fakeBlocklist{revoked: map[string]bool{}}
	users := &fakeUsers{users: map[string]models.User{user.Email: user}}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &gateFixture{
		gate:      New(log, codec, blocklist, users),
		codec:     codec,
		blocklist: blocklist,
		users:     users,
		user:      user,
	}
}

func (f *gateFixture) issue(t *testing.T, refresh bool) string {
	t.Helper()

	raw, err := f.codec.Issue(tokens.UserClaims{
		UID:   f.user.UID.String(),
		Email: f.user.Email,
		Role:  f.user.Role,
	}, refresh)
	require.NoError(t, err)

	return raw
}

func (f *gateFixture) request(t *testing.T, opts Options, token string) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()

	var seen *Identity

	handler := f.gate.Require(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := IdentityFromContext(r.Context()); ok {
			seen = &id
		}

		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec, seen
}

func TestGate_Authorized(t *testing.T) {
	f := newGateFixture(t)

	rec, identity := f.request(t, Options{AllowedRoles: []string{models.RoleUser, models.RoleAdmin}}, f.issue(t, false))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	require.Equal(t, f.user.UID.String(), identity.UID)
	require.Equal(t, f.user.Email, identity.Email)
	require.Equal(t, models.RoleUser, identity.Role)
	require.NotEmpty(t, identity.TokenID)
}

func TestGate_MissingToken(t *testing.T) {
	f := newGateFixture(t)

	rec, identity := f.request(t, Options{}, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, identity)
}

func TestGate_MalformedToken(t *testing.T) {
	f := newGateFixture(t)

	rec, identity := f.request(t, Options{}, "not-a-token")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, identity)
}

func TestGate_ExpiredToken(t *testing.T) {
	f := newGateFixture(t)

	raw, err := f.codec.IssueWithTTL(tokens.UserClaims{
		UID:   f.user.UID.String(),
		Email: f.user.Email,
		Role:  f.user.Role,
	}, false, -time.Second)
	require.NoError(t, err)

	rec, identity := f.request(t, Options{}, raw)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, identity)
}

func TestGate_RevokedToken(t *testing.T) {
	f := newGateFixture(t)

	raw := f.issue(t, false)

	claims, err := f.codec.Parse(raw)
	require.NoError(t, err)

	f.blocklist.revoked[claims.ID] = true

	rec, identity := f.request(t, Options{}, raw)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, identity)
	require.Contains(t, rec.Body.String(), "revoked")
}

func TestGate_WrongTokenType(t *testing.T) {
	f := newGateFixture(t)

	t.Run("refresh token on access endpoint", func(t *testing.T) {
		rec, identity := f.request(t, Options{}, f.issue(t, true))

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Nil(t, identity)
		require.Contains(t, rec.Body.String(), "refresh token not allowed")
	})

	t.Run("access token on refresh endpoint", func(t *testing.T) {
		rec, identity := f.request(t, Options{RequireRefresh: true}, f.issue(t, false))

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Nil(t, identity)
		require.Contains(t, rec.Body.String(), "refresh token required")
	})
}

func TestGate_UserNotFound(t *testing.T) {
	f := newGateFixture(t)

	raw := f.issue(t, false)
	delete(f.users.users, f.user.Email)

	rec, identity := f.request(t, Options{}, raw)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Nil(t, identity)
}

func TestGate_NotVerified(t *testing.T) {
	f := newGateFixture(t)

	u := f.user
	u.IsVerified = false
	f.users.users[u.Email] = u

	rec, identity := f.request(t, Options{RequireVerified: true}, f.issue(t, false))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, identity)
	require.Contains(t, rec.Body.String(), "not verified")
}

func TestGate_RoleNotAllowed(t *testing.T) {
	f := newGateFixture(t)

	// a valid, unrevoked, correctly typed token can still fail on role
	rec, identity := f.request(t, Options{AllowedRoles: []string{models.RoleAdmin}}, f.issue(t, false))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, identity)
	require.Contains(t, rec.Body.String(), "permission")
}

func TestRoleAllowed(t *testing.T) {
	require.True(t, RoleAllowed("admin", []string{"admin", "user"}))
	require.True(t, RoleAllowed("user", []string{"admin", "user"}))
	require.False(t, RoleAllowed("user", []string{"admin"}))
	require.False(t, RoleAllowed("", []string{"admin", "user"}))
	require.False(t, RoleAllowed("user", nil))
}
