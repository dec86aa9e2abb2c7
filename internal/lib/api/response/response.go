package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error codes exposed to the client alongside the HTTP status.
const (
	CodeAuthentication = "AuthenticationError"
	CodeAuthorization  = "AuthorizationError"
	CodeValidation     = "ValidationError"
	CodeNotFound       = "NotFound"
	CodeBadRequest     = "BadRequest"
	CodeMissingToken   = "MissingToken"
	CodeServer         = "ServerError"
)

type Response struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

func OK() Response {
	return Response{Status: StatusOK}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeServer,
		Error:  msg,
	}
}

func AuthenticationError(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeAuthentication,
		Error:  msg,
	}
}

func AuthorizationError(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeAuthorization,
		Error:  msg,
	}
}

func NotFound(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeNotFound,
		Error:  msg,
	}
}

func BadRequest(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeBadRequest,
		Error:  msg,
	}
}

func MissingToken(msg string) Response {
	return Response{
		Status: StatusError,
		Code:   CodeMissingToken,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "oneof":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be one of the allowed values", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Code:   CodeValidation,
		Error:  strings.Join(errMsgs, ", "),
	}
}
