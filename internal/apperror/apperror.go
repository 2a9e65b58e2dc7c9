// Package apperror defines the domain errors shared by every layer.
//
// Services return these; only the HTTP layer (handler/response.go) knows how
// they map to status codes. Each kind is a sentinel wrapped in an *AppError
// so callers can match with errors.Is and still get a human-readable message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// Session errors.
	ErrDuplicateUser      = errors.New("duplicate user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")

	// Audit pipeline errors.
	ErrMissingContractName = errors.New("missing contract name")
	ErrMissingSource       = errors.New("missing source")
	ErrSourceFetchFailed   = errors.New("source fetch failed")
	ErrAnalysisService     = errors.New("analysis service error")
	ErrPersistence         = errors.New("persistence error")

	// ErrUpstreamFeed is returned when the public incident feed is unusable.
	ErrUpstreamFeed = errors.New("upstream feed error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying collaborator error, never shown to clients
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func DuplicateUser(username string) *AppError {
	return &AppError{
		Err:     ErrDuplicateUser,
		Message: fmt.Sprintf("username %q already exists", username),
		Field:   "username",
	}
}

// InvalidCredentials deliberately carries the same message for an unknown
// user and a wrong password.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "authentication required",
	}
}

func InvalidToken(cause error) *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Message: "invalid or expired token",
		Cause:   cause,
	}
}

func MissingContractName() *AppError {
	return &AppError{
		Err:     ErrMissingContractName,
		Message: "contract name is required",
		Field:   "contract_name",
	}
}

func MissingSource() *AppError {
	return &AppError{
		Err:     ErrMissingSource,
		Message: "no Solidity code provided",
		Field:   "solidity_code",
	}
}

func SourceFetchFailed(url string, cause error) *AppError {
	return &AppError{
		Err:     ErrSourceFetchFailed,
		Message: fmt.Sprintf("failed to fetch Solidity code from %s", url),
		Field:   "github_url",
		Cause:   cause,
	}
}

func AnalysisFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrAnalysisService,
		Message: "AI audit failed",
		Cause:   cause,
	}
}

func Persistence(cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: "failed to save audit",
		Cause:   cause,
	}
}

func UpstreamFeed(cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamFeed,
		Message: "error fetching attack data",
		Cause:   cause,
	}
}
