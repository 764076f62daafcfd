package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies application errors so the HTTP layer and the workflow
// engine can react without string matching.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindCollaborator        Kind = "collaborator_error"
	KindInvalidSessionState Kind = "invalid_session_state"
	KindIndex               Kind = "index_error"
	KindNotFound            Kind = "not_found"
)

type AppError struct {
	Kind    Kind
	Stage   string // offending stage, empty for synchronous validation errors
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: stage %s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Collaborator(stage string, err error) *AppError {
	return &AppError{Kind: KindCollaborator, Stage: stage, Message: err.Error(), Err: err}
}

// InvalidSessionState discloses the current status so callers can correct
// their sequencing.
func InvalidSessionState(currentStatus, detail string) *AppError {
	return &AppError{
		Kind:    KindInvalidSessionState,
		Message: fmt.Sprintf("%s (current status: %s)", detail, currentStatus),
	}
}

func Index(stage string, err error) *AppError {
	return &AppError{Kind: KindIndex, Stage: stage, Message: err.Error(), Err: err}
}

func NotFound(what string) *AppError {
	return &AppError{Kind: KindNotFound, Message: what + " not found"}
}

// KindOf extracts the Kind from any error in the chain, or "" if the error
// is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
