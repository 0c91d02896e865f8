package signup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookly/internal/auth"
	"bookly/internal/http_server/handlers/signup"
	"bookly/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	err  error
	last models.User
}

func (f *fakeRegistrar) Register(_ context.Context, username, email, firstName, lastName, _ string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}

	f.last = models.User{
		UID:       uuid.New(),
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleUser,
	}

	return f.last, nil
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	return rec
}

func TestSignup_Created(t *testing.T) {
	registrar := &fakeRegistrar{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := signup.New(log, validator.New(), registrar)

	rec := post(t, handler, `{
		"username": "jsmith",
		"email": "a@x.com",
		"first_name": "John",
		"last_name": "Smith",
		"password": "secret123"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got signup.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "OK", got.Status)
	require.Equal(t, "a@x.com", got.User.Email)
	require.Contains(t, got.Message, "verify")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	registrar := &fakeRegistrar{err: auth.ErrUserExists}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := signup.New(log, validator.New(), registrar)

	rec := post(t, handler, `{
		"username": "jsmith",
		"email": "a@x.com",
		"first_name": "John",
		"last_name": "Smith",
		"password": "secret123"
	}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "already exists")
}

func TestSignup_Validation(t *testing.T) {
	registrar := &fakeRegistrar{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := signup.New(log, validator.New(), registrar)

	cases := map[string]string{
		"missing email":  `{"username": "jsmith", "first_name": "John", "last_name": "Smith", "password": "secret123"}`,
		"bad email":      `{"username": "jsmith", "email": "not-an-email", "first_name": "John", "last_name": "Smith", "password": "secret123"}`,
		"short password": `{"username": "jsmith", "email": "a@x.com", "first_name": "John", "last_name": "Smith", "password": "abc"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := post(t, handler, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignup_BadJSON(t *testing.T) {
	registrar := &fakeRegistrar{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := signup.New(log, validator.New(), registrar)

	rec := post(t, handler, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "failed to decode request")
}
