package devicetype

import (
	"errors"
	"fmt"
)

// Parse failure causes.
var (
	ErrMalformed        = errors.New("malformed document")
	ErrMissingField     = errors.New("required field missing")
	ErrDuplicateFeature = errors.New("duplicate feature code")
	ErrInvalidVersion   = errors.New("invalid license version")
)

// ConfigParseError reports why a device-type document was rejected.
type ConfigParseError struct {
	Source string // file path or "<reader>"
	Field  string // offending element, empty for whole-document failures
	Err    error
}

func (e *ConfigParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("device type config %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("device type config %s: %s: %v", e.Source, e.Field, e.Err)
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}
