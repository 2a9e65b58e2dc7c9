package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Table-driven: each constructor must be matchable by its sentinel and only by it.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("audit", "abc123"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("username", "username is required"), ErrValidation, true},
		{"DuplicateUser wraps ErrDuplicateUser", DuplicateUser("alice"), ErrDuplicateUser, true},
		{"InvalidCredentials wraps ErrInvalidCredentials", InvalidCredentials(), ErrInvalidCredentials, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized(), ErrUnauthorized, true},
		{"InvalidToken wraps ErrInvalidToken", InvalidToken(nil), ErrInvalidToken, true},
		{"MissingContractName wraps its sentinel", MissingContractName(), ErrMissingContractName, true},
		{"MissingSource wraps its sentinel", MissingSource(), ErrMissingSource, true},
		{"SourceFetchFailed wraps its sentinel", SourceFetchFailed("https://x", nil), ErrSourceFetchFailed, true},
		{"AnalysisFailed wraps ErrAnalysisService", AnalysisFailed(errors.New("boom")), ErrAnalysisService, true},
		{"Persistence wraps ErrPersistence", Persistence(errors.New("disk full")), ErrPersistence, true},
		{"UpstreamFeed wraps ErrUpstreamFeed", UpstreamFeed(nil), ErrUpstreamFeed, true},
		{"NotFound does NOT match ErrValidation", NotFound("audit", "abc123"), ErrValidation, false},
		{"Unauthorized does NOT match ErrInvalidToken", Unauthorized(), ErrInvalidToken, false},
		{"MissingSource does NOT match ErrMissingContractName", MissingSource(), ErrMissingContractName, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{"NotFound message includes resource and id", NotFound("audit", "abc123"), "audit not found with id abc123"},
		{"ValidationFailed uses custom message", ValidationFailed("username", "username is required"), "username is required"},
		{"DuplicateUser quotes the username", DuplicateUser("alice"), `username "alice" already exists`},
		{"Cause is appended to the message", AnalysisFailed(errors.New("timeout")), "AI audit failed: timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestCauseIsReachable(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("service: %w", Persistence(cause))

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Error("errors.Is should reach the sentinel through a wrapping layer")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should extract the *AppError")
	}
	if appErr.Message != "failed to save audit" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestFieldIsSet(t *testing.T) {
	if f := MissingContractName().Field; f != "contract_name" {
		t.Errorf("Field = %q, want %q", f, "contract_name")
	}
	if f := SourceFetchFailed("u", nil).Field; f != "github_url" {
		t.Errorf("Field = %q, want %q", f, "github_url")
	}
}
