package spectral

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any *ConfigurationError
	ErrConfiguration = errors.New("invalid configuration")

	// ErrShapeMismatch matches any *ShapeMismatchError
	ErrShapeMismatch = errors.New("spectrum shape mismatch")
)

// ConfigurationError reports a parameter rejected at configure time.
// The component that returned it keeps its previous configuration.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s=%v: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ShapeMismatchError reports a spectrum or frame whose length disagrees with
// the configured length. The call is rejected and no state changes.
type ShapeMismatchError struct {
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%v: got %d bins, want %d", ErrShapeMismatch, e.Got, e.Want)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

func configErr(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
