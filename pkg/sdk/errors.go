package examdex

import "github.com/kailas-cloud/examdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                  = domain.ErrNotFound
	ErrForbidden                 = domain.ErrForbidden
	ErrInvalidInput              = domain.ErrInvalidInput
	ErrAnalysisInProgress        = domain.ErrAnalysisInProgress
	ErrStorageUnavailable        = domain.ErrStorageUnavailable
	ErrProviderUnavailable       = domain.ErrProviderUnavailable
	ErrProviderNotConfigured     = domain.ErrProviderNotConfigured
	ErrProviderQuotaExceeded     = domain.ErrProviderQuotaExceeded
	ErrProviderInvalidCredential = domain.ErrProviderInvalidCredential
)
