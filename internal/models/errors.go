package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrCacheUnavailable  = errors.New("cache unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// Error codes carried on stream error events and API error bodies
const (
	CodeDataUnavailable   = "data_unavailable"
	CodeInsufficientData  = "insufficient_data"
	CodeInvalidParameters = "invalid_parameters"
	CodeUnknownStrategy   = "unknown_strategy"
	CodeStoreUnavailable  = "store_unavailable"
	CodeInternal          = "internal"
)

// DataUnavailableError reports an inactive instrument or unsupported interval
type DataUnavailableError struct {
	InstrumentID int64
	Reason       string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for instrument %d: %s", e.InstrumentID, e.Reason)
}

// Is matches ErrDataUnavailable
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// InsufficientDataError reports a series shorter than the evaluation floor
type InsufficientDataError struct {
	Count    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d price points, need %d", e.Count, e.Required)
}

// Is matches ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// InvalidParametersError reports a parameter outside its declared range
type InvalidParametersError struct {
	Parameter string
	Reason    string
}

func (e *InvalidParametersError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("invalid parameters: %s", e.Reason)
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Parameter, e.Reason)
}

// Is matches ErrInvalidParameters
func (e *InvalidParametersError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// StoreError wraps a data store failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches ErrStoreUnavailable
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// ErrorCode maps an error to its stream/API code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return CodeInsufficientData
	case errors.Is(err, ErrDataUnavailable):
		return CodeDataUnavailable
	case errors.Is(err, ErrInvalidParameters):
		return CodeInvalidParameters
	case errors.Is(err, ErrUnknownStrategy):
		return CodeUnknownStrategy
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeInternal
	}
}
