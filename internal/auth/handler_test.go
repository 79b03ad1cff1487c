package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*chi.Mux, *memoryAuthRepo) {
	t.Helper()
	svc, repo := newTestService(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(slog.New(slog.DiscardHandler), svc, issuer, false)

	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r, repo
}

func postLogin(t *testing.T, srv http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestLoginReturnsTokenAndCookie(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.addUser(t, "ops@example.com", "Abc123!@", StatusActive)

	rec := postLogin(t, srv, "ops@example.com", "Abc123!@")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.Token)
	require.Equal(t, "ops@example.com", body.Data.User.Email)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.True(t, sessionCookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, sessionCookie.SameSite)
}

func TestLoginWrongPasswordGets401(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.addUser(t, "ops@example.com", "Abc123!@", StatusActive)

	rec := postLogin(t, srv, "ops@example.com", "wrong-password")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "invalid email or password", body.Error)
}

func TestLoginLockedAccountGets423(t *testing.T) {
	srv, repo := newTestServer(t)
	repo.addUser(t, "ops@example.com", "Abc123!@", StatusActive)

	for i := 0; i < DefaultMaxFailures; i++ {
		rec := postLogin(t, srv, "ops@example.com", "wrong-password")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	// Even the correct password is refused while the lockout holds, and
	// the message never says whether the credentials were right.
	rec := postLogin(t, srv, "ops@example.com", "Abc123!@")
	require.Equal(t, http.StatusLocked, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "too many failed attempts, try again later", body.Error)
	require.NotContains(t, body.Error, "password")
}

func TestLoginMissingFieldsGet400(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postLogin(t, srv, "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
