package auth

import (
	internaljwt "care-chat-backend/internal/jwt"
	"care-chat-backend/internal/model"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeConflict     ErrorCode = "conflict"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type RegisterParams struct {
	Email          string
	Password       string
	FullName       string
	Role           string
	Specialization string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User   model.UserItem
	Tokens internaljwt.TokenResponse
}

type DoctorProfile struct {
	UserID         string
	FullName       string
	Specialization string
}
