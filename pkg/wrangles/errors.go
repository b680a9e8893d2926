package wrangles

import (
	"errors"
	"fmt"
)

// ErrNoFunctions is returned when a lookup has neither a builtin nor a
// custom namespace to search.
var ErrNoFunctions = errors.New("no functions provided")

// MissingColumnError reports a required column that is not in the table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("Column %s does not exist", e.Column)
}

func Missing(column string) error { return &MissingColumnError{Column: column} }

// ConfigurationError reports an invalid recipe or option value.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// UnknownFunctionError reports a dotted step name that resolved nowhere.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("Function %s not recognized", e.Name)
}

// RemoteAccessError reports an authorization or lookup failure against a
// remote store.
type RemoteAccessError struct {
	Msg        string
	StatusCode int
	Err        error
}

func (e *RemoteAccessError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RemoteAccessError) Unwrap() error { return e.Err }

func Remote(status int, format string, args ...any) error {
	return &RemoteAccessError{Msg: fmt.Sprintf(format, args...), StatusCode: status}
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsMissingColumn reports whether err carries a MissingColumnError.
func IsMissingColumn(err error) bool {
	var me *MissingColumnError
	return errors.As(err, &me)
}
