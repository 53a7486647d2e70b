package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akozhevin/accounts-api/internal/cookie"
	"github.com/akozhevin/accounts-api/internal/logging"
	"github.com/akozhevin/accounts-api/internal/models"
	"github.com/akozhevin/accounts-api/internal/repo"
	"github.com/akozhevin/accounts-api/internal/service"
	"github.com/akozhevin/accounts-api/internal/token"
)

func newTestServer(t *testing.T, production bool) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open in-memory db")
	require.NoError(t, db.AutoMigrate(&models.User{}))

	issuer := &token.Issuer{Secret: []byte("test-secret"), TTL: 24 * time.Hour}
	baker := &cookie.Baker{Name: "token", Secure: production, MaxAge: 15 * time.Minute}
	svc := &service.AuthService{Repo: &repo.UserRepo{DB: db}}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: svc, Issuer: issuer, Cookie: baker},
		Logger:      logging.New("error"),
		CORSOrigins: []string{"*"},
		StartedAt:   time.Now(),
	})
	return e
}

func doJSON(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" {
			return ck
		}
	}
	t.Fatal("auth cookie not set")
	return nil
}

func signUpBody() map[string]string {
	return map[string]string{
		"name":     "Ann",
		"email":    "ann@x.com",
		"password": "secret1",
		"role":     "user",
	}
}

func TestSignUp(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	user, ok := resp["user"].(map[string]any)
	require.True(t, ok, "expected user object in response")
	require.Equal(t, "ann@x.com", user["email"])
	require.Equal(t, "user", user["role"])
	require.NotEmpty(t, user["id"])
	require.NotContains(t, user, "password")
	require.NotContains(t, rec.Body.String(), "password")

	ck := authCookie(t, rec)
	require.NotEmpty(t, ck.Value)
	require.True(t, ck.HttpOnly)
	require.False(t, ck.Secure)
	require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	require.Equal(t, 900, ck.MaxAge)
}

func TestSignUpSecureCookieInProduction(t *testing.T) {
	e := newTestServer(t, true)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, authCookie(t, rec).Secure)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "email already exists")
}

func TestSignUpValidation(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "name is required")
	require.Contains(t, rec.Body.String(), "email must be a valid email address")
	require.Contains(t, rec.Body.String(), "password is required")
}

func TestSignUpDefaultRole(t *testing.T) {
	e := newTestServer(t, false)

	body := signUpBody()
	delete(body, "role")
	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "user", resp["user"].(map[string]any)["role"])
}

func TestSignIn(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email":    "ann@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ann@x.com", resp["user"].(map[string]any)["email"])
	require.NotContains(t, rec.Body.String(), "password")
	require.NotEmpty(t, authCookie(t, rec).Value)
}

func TestSignInRejections(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-up", signUpBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := doJSON(e, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email":    "ann@x.com",
		"password": "wrong-password",
	})
	unknownEmail := doJSON(e, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email":    "nobody@x.com",
		"password": "secret1",
	})

	// wrong password and unknown account must be indistinguishable
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	require.Contains(t, wrongPassword.Body.String(), "invalid credentials")
}

func TestSignOut(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodPost, "/api/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "signed out")

	ck := authCookie(t, rec)
	require.Empty(t, ck.Value)
	require.Negative(t, ck.MaxAge)
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
	require.NotEmpty(t, resp["timestamp"])
	require.NotEmpty(t, resp["uptime"])
}

func TestRootAndAPIStatus(t *testing.T) {
	e := newTestServer(t, false)

	rec := doJSON(e, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Accounts API", rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/api", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "running")
}
