package domain

import "fmt"

// TransportError is returned when a request to GitHub fails or its payload is unusable.
// It aborts the whole run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned when the run cannot start because of its configuration.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error on %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DataShapeError describes a page element with missing fields.
// It is only logged; the field is replaced by its default.
type DataShapeError struct {
	Repo  string
	Field string
}

func (e *DataShapeError) Error() string {
	if e.Repo == "" {
		return fmt.Sprintf("unexpected data shape: missing %s", e.Field)
	}
	return fmt.Sprintf("unexpected data shape in %s: missing %s", e.Repo, e.Field)
}
