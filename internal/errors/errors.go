package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUserNotFound          = fmt.Errorf("user not found")
	ErrConversationNotFound  = fmt.Errorf("conversation not found")
	ErrUsernameTaken         = fmt.Errorf("username already exists")
	ErrAlreadyParticipant    = fmt.Errorf("user is already a participant in this conversation")
	ErrAlreadyActive         = fmt.Errorf("user already logged in")
	ErrInvalidCredentials    = fmt.Errorf("invalid credentials")
	ErrNotAParticipant       = fmt.Errorf("user is not a participant in this conversation")
	ErrNotAGroup             = fmt.Errorf("conversation is not a group")
	ErrInvalidRequest        = fmt.Errorf("invalid request")
	ErrDuplicateConversation = fmt.Errorf("conversation already exists for these participants")
	ErrTokenGeneration       = fmt.Errorf("token generation failed")
)

// HTTPStatus maps an error returned by a service to the status code the API
// answers with. Unknown errors are server errors.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrAlreadyParticipant),
		errors.Is(err, ErrNotAGroup),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyActive), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAParticipant):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsServerError reports whether err falls outside the known taxonomy.
func IsServerError(err error) bool {
	return HTTPStatus(err) == http.StatusInternalServerError
}
