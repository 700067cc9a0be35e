package analysis

import "github.com/kailas-cloud/examdex/internal/domain"

// ProviderHandle is either a configured analyzer or the absence of one.
// The zero value is Unconfigured.
type ProviderHandle struct {
	analyzer domain.Analyzer
}

// Configured wraps a ready analyzer. A nil analyzer yields Unconfigured.
func Configured(a domain.Analyzer) ProviderHandle {
	return ProviderHandle{analyzer: a}
}

// Unconfigured is the handle used when no provider credential is set.
func Unconfigured() ProviderHandle {
	return ProviderHandle{}
}

// Analyzer returns the analyzer and whether one is configured.
func (h ProviderHandle) Analyzer() (domain.Analyzer, bool) {
	return h.analyzer, h.analyzer != nil
}
