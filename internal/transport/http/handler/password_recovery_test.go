package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/myvoice974/account-api/internal/application/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecoverySvc struct{ mock.Mock }

func (m *mockRecoverySvc) RequestOTP(ctx context.Context, email string) (*recovery.RequestResult, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*recovery.RequestResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecoverySvc) ResetPassword(ctx context.Context, req recovery.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func recoveryRouter(svc recovery.Service) http.Handler {
	r := chi.NewRouter()
	h := NewPasswordRecoveryHandler(svc)
	r.Post("/v1/password-recovery/{action}", h.Action)
	return r
}

func doJSON(t *testing.T, h http.Handler, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- request ---

func TestRecoveryRequest_Success(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("RequestOTP", mock.Anything, "a@b.com").Return(&recovery.RequestResult{}, nil)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{"email": "a@b.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	_, hasDev := body["dev"]
	assert.False(t, hasDev)
}

func TestRecoveryRequest_DevFallback(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("RequestOTP", mock.Anything, "a@b.com").Return(&recovery.RequestResult{Dev: true}, nil)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{"email": "a@b.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["dev"])
}

func TestRecoveryRequest_MissingEmail(t *testing.T) {
	svc := &mockRecoverySvc{}
	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is required", decodeBody(t, rec)["error"])
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRecoveryRequest_MalformedEmail(t *testing.T) {
	svc := &mockRecoverySvc{}
	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Adresse email invalide.", decodeBody(t, rec)["error"])
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRecoveryRequest_AccountNotFound(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("RequestOTP", mock.Anything, "nouser@example.com").Return(nil, recovery.ErrAccountNotFound)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{"email": "nouser@example.com"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Aucun compte trouvé avec cette adresse email.", decodeBody(t, rec)["error"])
}

func TestRecoveryRequest_InternalError(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("RequestOTP", mock.Anything, "a@b.com").Return(nil, errors.New("dynamo on fire"))

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/request", map[string]string{"email": "a@b.com"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- reset ---

func resetBody(email, otp, password string) map[string]string {
	return map[string]string{"email": email, "otp": otp, "new_password": password}
}

func TestRecoveryReset_Success(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("ResetPassword", mock.Anything, recovery.ResetPasswordRequest{
		Email: "a@b.com", OTP: "123456", NewPassword: "newpass1",
	}).Return(nil)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/reset", resetBody("a@b.com", "123456", "newpass1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	svc.AssertExpectations(t)
}

func TestRecoveryReset_MissingFields(t *testing.T) {
	svc := &mockRecoverySvc{}
	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/reset", map[string]string{"email": "a@b.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
}

func TestRecoveryReset_ShortPassword(t *testing.T) {
	svc := &mockRecoverySvc{}
	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/reset", resetBody("a@b.com", "123456", "abc"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
}

func TestRecoveryReset_InvalidCode(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("ResetPassword", mock.Anything, mock.Anything).Return(recovery.ErrCodeInvalid)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/reset", resetBody("a@b.com", "111111", "newpass1"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired OTP", decodeBody(t, rec)["error"])
}

func TestRecoveryReset_ExpiredCode(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("ResetPassword", mock.Anything, mock.Anything).Return(recovery.ErrCodeExpired)

	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/reset", resetBody("a@b.com", "123456", "newpass1"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "OTP has expired", decodeBody(t, rec)["error"])
}

func TestRecovery_UnknownAction(t *testing.T) {
	svc := &mockRecoverySvc{}
	rec := doJSON(t, recoveryRouter(svc), "/v1/password-recovery/frobnicate", map[string]string{"email": "a@b.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown action", decodeBody(t, rec)["error"])
}
