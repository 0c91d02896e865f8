package login_test

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
	"bookly/internal/http_server/handlers/login"
	"bookly/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type fakeLoginer struct {
	err error
}

func (f *fakeLoginer) Login(_ context.Context, _, _ string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}

	return "access-token", "refresh-token", nil
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	return rec
}

func TestLogin_Success(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := login.New(log, validator.New(), &fakeLoginer{})

	rec := post(t, handler, `{"email": "a@x.com", "password": "secret123"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var got login.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "access-token", got.AccessToken)
	require.Equal(t, "refresh-token", got.RefreshToken)
	require.Equal(t, "bearer", got.TokenType)
}

func TestLogin_Errors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown user", storage.ErrUserNotFound, http.StatusNotFound},
		{"wrong password", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unverified email", auth.ErrEmailNotVerified, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := login.New(log, validator.New(), &fakeLoginer{err: tc.err})

			rec := post(t, handler, `{"email": "a@x.com", "password": "secret123"}`)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestLogin_Validation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := login.New(log, validator.New(), &fakeLoginer{})

	rec := post(t, handler, `{"email": "not-an-email", "password": ""}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
