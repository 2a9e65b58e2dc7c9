package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/auth"
	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/service"
)

// Auditor is the part of service.AuditService the handlers use.
type Auditor interface {
	Submit(ctx context.Context, owner model.Identity, req service.SubmitRequest) (*model.Audit, error)
	List(ctx context.Context, userID string) ([]model.Audit, error)
	Get(ctx context.Context, userID, id string) (*model.Audit, error)
}

// AuditHandler serves the audit endpoints. Every route requires auth.
type AuditHandler struct {
	audits Auditor
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(a Auditor, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audits: a, logger: logger}
}

type submitAuditRequest struct {
	ContractName string `json:"contract_name"`
	SolidityCode string `json:"solidity_code"`
	GitHubURL    string `json:"github_url"`
}

// SubmitAuditResponse is returned by POST /api/audits.
type SubmitAuditResponse struct {
	Message string       `json:"message"`
	Audit   *model.Audit `json:"audit"`
}

// HandleSubmit runs the full audit pipeline synchronously.
//
// HTTP: POST /api/audits (legacy: POST /audit)
// REQUEST BODY:
//
//	{"contract_name": "Vault", "solidity_code": "contract Vault {...}"}
//	{"contract_name": "Vault", "github_url": "https://github.com/o/r/blob/main/Vault.sol"}
//
// The call blocks for as long as the model takes to answer, typically
// 10–60s. The server's write timeout is sized for that.
func (h *AuditHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized())
		return
	}

	// An empty body is an empty submission; Submit reports the missing name.
	var req submitAuditRequest
	if err := decodeJSON(w, r, &req); err != nil && err != errEmptyBody {
		writeError(w, r, h.logger, err)
		return
	}

	audit, err := h.audits.Submit(r.Context(), id, service.SubmitRequest{
		ContractName: req.ContractName,
		SolidityCode: req.SolidityCode,
		GitHubURL:    req.GitHubURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitAuditResponse{
		Message: "Audit successful",
		Audit:   audit,
	})
}

// HandleList returns the caller's audits, newest first.
//
// HTTP: GET /api/audits (legacy: GET /audits)
// RESPONSE: 200 [...] (an empty array, never null)
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized())
		return
	}

	audits, err := h.audits.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if audits == nil {
		audits = []model.Audit{}
	}

	writeJSON(w, http.StatusOK, audits)
}

// HandleGet returns one of the caller's audits.
//
// HTTP: GET /api/audits/{id}
// Another user's audit is a 404, exactly like a missing one.
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized())
		return
	}

	audit, err := h.audits.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, audit)
}
