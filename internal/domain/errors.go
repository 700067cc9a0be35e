package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing or deleted resource.
	ErrNotFound = errors.New("not found")
	// ErrForbidden signals a resource owned by another caller.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput signals a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable signals an unreachable store or a query it rejected.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrProviderUnavailable signals an analysis provider failure.
	ErrProviderUnavailable = errors.New("analysis provider unavailable")
	// ErrAnalysisInProgress signals that another request holds the analysis marker.
	ErrAnalysisInProgress = errors.New("analysis in progress")
)

// Provider failure kinds. Each one matches ErrProviderUnavailable via errors.Is.
var (
	ErrProviderNotConfigured     = fmt.Errorf("%w: not configured", ErrProviderUnavailable)
	ErrProviderQuotaExceeded     = fmt.Errorf("%w: quota exceeded", ErrProviderUnavailable)
	ErrProviderInvalidCredential = fmt.Errorf("%w: invalid credential", ErrProviderUnavailable)
)
