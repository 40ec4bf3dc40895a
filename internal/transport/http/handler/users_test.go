package handler

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/myvoice974/account-api/internal/config"
	"github.com/myvoice974/account-api/internal/domain"
	jwtinfra "github.com/myvoice974/account-api/internal/infrastructure/jwt"
	"github.com/myvoice974/account-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

func usersRouter(svc *mockAccountSvc, p *jwtinfra.Provider) http.Handler {
	r := chi.NewRouter()
	h := NewUserHandler(svc)
	r.Post("/v1/users", h.Register)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(p))
		r.Get("/v1/users/me", h.Me)
	})
	return r
}

func TestRegisterHandler_Created(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Register", mock.Anything, mock.AnythingOfType("account.RegisterRequest")).
		Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)

	rec := doJSON(t, usersRouter(svc, newTestJWTProvider(t)), "/v1/users", map[string]string{
		"email": "a@b.com", "password": "secret1", "first_name": "Jean", "last_name": "Payet",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", decodeBody(t, rec)["id"])
}

func TestRegisterHandler_ValidationFailure(t *testing.T) {
	svc := &mockAccountSvc{}
	rec := doJSON(t, usersRouter(svc, newTestJWTProvider(t)), "/v1/users", map[string]string{
		"email": "a@b.com", "password": "short",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestMe_WithBearer(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)

	p := newTestJWTProvider(t)
	token, err := p.Sign("u1", domain.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	usersRouter(svc, p).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", decodeBody(t, rec)["email"])
}

func TestMe_NoToken(t *testing.T) {
	svc := &mockAccountSvc{}
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	rec := httptest.NewRecorder()
	usersRouter(svc, newTestJWTProvider(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
