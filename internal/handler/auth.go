package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/auth"
	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/service"
)

// Authenticator is the part of service.AuthService the handlers use.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(a Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

// credentialsRequest accepts both "password" and the legacy "passwd" key
// that the legacy front-end posts.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Passwd   string `json:"passwd"`
}

func (c credentialsRequest) password() string {
	if c.Password != "" {
		return c.Password
	}
	return c.Passwd
}

// RegisterResponse is returned by POST /api/register.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// LoginResponse is returned by POST /api/login.
type LoginResponse struct {
	Token   string         `json:"token"`
	Message string         `json:"message"`
	User    model.Identity `json:"user"`
}

// HandleRegister creates an account. No token is issued; the client logs
// in separately.
//
// HTTP: POST /api/register (legacy: POST /register)
// REQUEST BODY: {"username": "alice", "password": "pw123"}
// RESPONSE: 201 {"message": "...", "user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.password())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		User:    user,
	})
}

// HandleLogin exchanges credentials for a bearer token.
//
// HTTP: POST /api/login (legacy: POST /login)
// RESPONSE: 200 {"token": "<jwt>", "message": "Login successful", "user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.password())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:   res.Token,
		Message: "Login successful",
		User:    res.Identity,
	})
}

// HandleMe returns the authenticated user's record.
//
// HTTP: GET /api/me (requires auth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized())
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
