package types

import (
	stderrors "errors"
	"strings"

	"github.com/agilira/go-errors"
)

const (
	ErrCodeUnknownCommand = "CLOUDCTL_UNKNOWN_COMMAND"
	ErrCodeMissingOption  = "CLOUDCTL_MISSING_OPTION"
	ErrCodeInvalidValue   = "CLOUDCTL_INVALID_VALUE"
	ErrCodeUnexpectedArgs = "CLOUDCTL_UNEXPECTED_ARGS"
	ErrCodeAborted        = "CLOUDCTL_ABORTED"
	ErrCodeConfig         = "CLOUDCTL_CONFIG"

	ErrCodeAPINotFound     = "CLOUDCTL_API_NOT_FOUND"
	ErrCodeAPIUnauthorized = "CLOUDCTL_API_UNAUTHORIZED"
	ErrCodeAPIForbidden    = "CLOUDCTL_API_FORBIDDEN"
	ErrCodeAPIConflict     = "CLOUDCTL_API_CONFLICT"
	ErrCodeAPIInvalidInput = "CLOUDCTL_API_INVALID_INPUT"
	ErrCodeAPIRateLimited  = "CLOUDCTL_API_RATE_LIMITED"
	ErrCodeAPIServer       = "CLOUDCTL_API_SERVER"
	ErrCodeAPITransport    = "CLOUDCTL_API_TRANSPORT"
)

var (
	ErrInvalidName            = stderrors.New("must be lowercase alphanumeric characters or '-', and must start and end with an alphanumeric character")
	ErrInvalidURL             = stderrors.New("must be a valid URL")
	ErrInvalidID              = stderrors.New("must be a positive integer")
	ErrValidtorStopValidation = stderrors.New("stop validation")
)

func UnknownCommand(path string, suggestions ...string) *errors.Error {
	msg := "unknown command: " + path
	if len(suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(suggestions, ", ") + ")"
	}

	return errors.New(ErrCodeUnknownCommand, msg).
		WithContext("command", path)
}

func UnknownOption(name string) *errors.Error {
	return errors.New(ErrCodeInvalidValue, "unknown option: "+name).
		WithContext("option", name)
}

func ConfirmationRequired(action string) *errors.Error {
	return errors.New(ErrCodeMissingOption, action+" needs confirmation, pass --yes to proceed").
		WithContext("option", "--yes")
}

func MissingOption(name string) *errors.Error {
	return errors.New(ErrCodeMissingOption, "missing required argument: "+name).
		WithContext("option", name)
}

func InvalidValue(name string, value string, err error) *errors.Error {
	return errors.Wrap(err, ErrCodeInvalidValue, "invalid value for "+name+": "+err.Error()).
		WithContext("option", name).
		WithContext("value", value)
}

func UnexpectedArgs(args []string) *errors.Error {
	return errors.New(ErrCodeUnexpectedArgs, "unexpected arguments: "+strings.Join(args, " ")).
		WithContext("args", args)
}

func Aborted() *errors.Error {
	return errors.New(ErrCodeAborted, "aborted")
}

// ErrorCode returns the first code found in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var coder errors.ErrorCoder
	if stderrors.As(err, &coder) {
		return string(coder.ErrorCode())
	}

	return ""
}

func HasCode(err error, code string) bool {
	for err != nil {
		if coder, ok := err.(errors.ErrorCoder); ok && string(coder.ErrorCode()) == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}

	return false
}

func IsUsageError(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeUnknownCommand, ErrCodeMissingOption, ErrCodeInvalidValue, ErrCodeUnexpectedArgs:
		return true
	}

	return false
}
