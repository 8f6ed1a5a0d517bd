package graph

import (
	"errors"
	"fmt"

	"github.com/geoknoesis/rdf-batch/rdf"
)

const (
	// ErrCodeInvalidConfig indicates a rejected BatchOptions or store config.
	ErrCodeInvalidConfig rdf.ErrorCode = "INVALID_CONFIG"
	// ErrCodeClosed indicates use of a closed BatchAddGraph.
	ErrCodeClosed rdf.ErrorCode = "CLOSED"
	// ErrCodeUpdateUnsupported indicates the sink cannot apply the request.
	ErrCodeUpdateUnsupported rdf.ErrorCode = "UPDATE_UNSUPPORTED"
)

var (
	// ErrInvalidBufferSize indicates a buffer size that is missing or not greater than 1.
	ErrInvalidBufferSize = errors.New("graph: buffer size must be greater than 1")
	// ErrNilGraph indicates a missing target graph.
	ErrNilGraph = errors.New("graph: target graph is nil")
	// ErrClosed indicates the BatchAddGraph was closed or discarded.
	ErrClosed = errors.New("graph: batch graph is closed")
	// ErrUpdateUnsupported indicates the sink does not accept updates.
	ErrUpdateUnsupported = errors.New("graph: sink does not support updates")
	// ErrRemoveUnsupported indicates the sink cannot delete statements.
	ErrRemoveUnsupported = errors.New("graph: sink does not support removal")
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Code returns the error code for graph errors and falls back to rdf.Code.
func Code(err error) rdf.ErrorCode {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ErrCodeInvalidConfig
	case errors.Is(err, ErrClosed):
		return ErrCodeClosed
	case errors.Is(err, ErrUpdateUnsupported), errors.Is(err, ErrRemoveUnsupported):
		return ErrCodeUpdateUnsupported
	}
	return rdf.Code(err)
}
