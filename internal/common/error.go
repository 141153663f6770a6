package common

import (
	"errors"
	"net/http"
)

// ErrorNotFound is returned by repositories when no row matches.
var ErrorNotFound = errors.New("not found")

// Kind classifies an AppError and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindDuplicate
	KindUnprocessable
	KindTooManyRequests
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindUnprocessable:
		return "unprocessable"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// AppError is a typed application error carrying a stable machine-readable
// code. Two AppErrors match under errors.Is when kind and code are equal.
type AppError struct {
	Kind    Kind
	Code    string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Status is a shortcut for e.Kind.Status().
func (e *AppError) Status() int { return e.Kind.Status() }

// WithDetails returns a copy of e carrying details for the client.
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

// Wrap attaches cause to a new AppError of the given kind and code.
func Wrap(cause error, kind Kind, code string) *AppError {
	return &AppError{Kind: kind, Code: code, Err: cause}
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Constructors for each Kind.
func Internal(code string) *AppError        { return &AppError{Kind: KindInternal, Code: code} }
func Validation(code string) *AppError      { return &AppError{Kind: KindValidation, Code: code} }
func Unauthorized(code string) *AppError    { return &AppError{Kind: KindUnauthorized, Code: code} }
func Forbidden(code string) *AppError       { return &AppError{Kind: KindForbidden, Code: code} }
func NotFound(code string) *AppError        { return &AppError{Kind: KindNotFound, Code: code} }
func Duplicate(code string) *AppError       { return &AppError{Kind: KindDuplicate, Code: code} }
func Unprocessable(code string) *AppError   { return &AppError{Kind: KindUnprocessable, Code: code} }
func TooManyRequests(code string) *AppError { return &AppError{Kind: KindTooManyRequests, Code: code} }

var (
	// Generic errors produced by the HTTP boundary.
	ErrInternal        = Internal("INTERNAL_ERROR")
	ErrValidation      = Validation("VALIDATION_ERROR")
	ErrDuplicate       = Duplicate("DUPLICATE_RESOURCE")
	ErrInvalidID       = Validation("INVALID_ID")
	ErrTooManyRequests = TooManyRequests("TOO_MANY_REQUESTS")
	ErrMissingRef      = Unprocessable("REFERENCED_RESOURCE_MISSING")

	// Account lifecycle.
	ErrUserNotFound             = NotFound("USER_NOT_FOUND")
	ErrEmailTaken               = Duplicate("EMAIL_ALREADY_REGISTERED")
	ErrPasswordIncorrect        = Unauthorized("PASSWORD_INCORRECT")
	ErrAccountNotConfirmed      = Forbidden("ACCOUNT_NOT_CONFIRMED")
	ErrConfirmationTokenInvalid = Unauthorized("INVALID_OR_EXPIRED_TOKEN")
	ErrResetTokenInvalid        = NotFound("INVALID_OR_EXPIRED_TOKEN")
	ErrCodeRecentlySent         = TooManyRequests("CODE_RECENTLY_SENT")
	ErrCurrentPasswordIncorrect = Unauthorized("CURRENT_PASSWORD_INCORRECT")
	ErrPasswordUnchanged        = Validation("PASSWORD_SAME_AS_CURRENT")
	ErrEmailSendFailed          = Internal("EMAIL_SEND_FAILED")

	// Session tokens.
	ErrTokenRequired = Unauthorized("TOKEN_REQUIRED")
	ErrTokenInvalid  = Unauthorized("TOKEN_INVALID")
	ErrTokenExpired  = Unauthorized("TOKEN_EXPIRED")
	ErrTokenPayload  = Unauthorized("TOKEN_PAYLOAD_INVALID")
	ErrTokenRevoked  = Unauthorized("TOKEN_REVOKED")

	// Projects, tasks, notes and team membership.
	ErrProjectNotFound       = NotFound("PROJECT_NOT_FOUND")
	ErrTaskNotFound          = NotFound("TASK_NOT_FOUND")
	ErrNoteNotFound          = NotFound("NOTE_NOT_FOUND")
	ErrTaskNotInProject      = Forbidden("TASK_NOT_IN_PROJECT")
	ErrActionNotAllowed      = Unauthorized("ACTION_NOT_ALLOWED")
	ErrNoteNotOwned          = Unauthorized("NOTE_ACTION_NOT_ALLOWED")
	ErrInvalidTaskStatus     = Validation("INVALID_TASK_STATUS")
	ErrMemberAlreadyExists   = Duplicate("TEAM_MEMBER_ALREADY_EXISTS")
	ErrMemberNotFound        = NotFound("TEAM_MEMBER_NOT_FOUND")
	ErrMemberNotInProject    = NotFound("TEAM_MEMBER_NOT_IN_PROJECT")
	ErrManagerCannotJoinTeam = Validation("TEAM_MEMBER_IS_MANAGER")
)
