package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/auth"
	"github.com/sakif/contract-auditor/internal/handler"
	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/service"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		m := &MockAuth{User: &model.User{
			ID: "u1", Username: "alice", PasswordHash: "$2a$10$secret", CreatedAt: time.Now(),
		}}
		h := handler.NewAuthHandler(m, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/register",
			bytes.NewBufferString(`{"username":"alice","password":"pw123"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "alice", m.GotUsername)
		assert.Equal(t, "pw123", m.GotPassword)
		assert.NotContains(t, rr.Body.String(), "secret", "the hash must never be serialised")
		assert.NotContains(t, rr.Body.String(), "token", "registration does not issue a token")

		var res handler.RegisterResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "u1", res.User.ID)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("legacy passwd field", func(t *testing.T) {
		m := &MockAuth{User: &model.User{ID: "u1", Username: "alice"}}
		h := handler.NewAuthHandler(m, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"username":"alice","passwd":"pw123"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "pw123", m.GotPassword)
	})

	t.Run("duplicate", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{Err: apperror.DuplicateUser("alice")}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/register",
			bytes.NewBufferString(`{"username":"alice","password":"pw123"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "duplicate_user", body.Error)
		assert.Equal(t, "username", body.Field)
	})

	t.Run("invalid json", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(`{"username":`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr).Error)
	})

	t.Run("empty body", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/register", http.NoBody)
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{}, testLogger())

		big := `{"username":"` + strings.Repeat("a", 3<<20) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(big))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		m := &MockAuth{Result: &service.LoginResult{
			Token:    "jwt-token",
			Identity: model.Identity{UserID: "u1", Username: "alice"},
		}}
		h := handler.NewAuthHandler(m, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/login",
			bytes.NewBufferString(`{"username":"alice","passwd":"pw123"}`))
		rr := httptest.NewRecorder()
		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "pw123", m.GotPassword)

		var res handler.LoginResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "jwt-token", res.Token)
		assert.Equal(t, "alice", res.User.Username)
		assert.Equal(t, "Login successful", res.Message)
	})

	t.Run("bad credentials", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{Err: apperror.InvalidCredentials()}, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/login",
			bytes.NewBufferString(`{"username":"alice","password":"nope"}`))
		rr := httptest.NewRecorder()
		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid_credentials", decodeError(t, rr).Error)
	})
}

func TestAuthHandler_HandleMe(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		m := &MockAuth{User: &model.User{ID: "u1", Username: "alice"}}
		h := handler.NewAuthHandler(m, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), model.Identity{UserID: "u1", Username: "alice"}))
		rr := httptest.NewRecorder()
		h.HandleMe(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"username":"alice"`)
	})

	t.Run("no identity", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuth{}, testLogger())

		rr := httptest.NewRecorder()
		h.HandleMe(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rr).Error)
	})
}
