package generate

import "log/slog"

// Logger is the minimal structured logging interface used by the generator.
// It follows the log/slog convention of variadic alternating key-value
// attribute pairs, so a *slog.Logger adapts directly and zap or zerolog need
// only a thin wrapper.
type Logger interface {
	// Debug logs detailed resolution steps.
	Debug(msg string, attrs ...any)

	// Warn logs recoverable generation problems. Every warning also becomes
	// a diagnostic on the run result.
	Warn(msg string, attrs ...any)

	// Error logs generation problems that degraded the output.
	Error(msg string, attrs ...any)
}

// NopLogger discards all output. It is the default when no logger is
// configured.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(_ string, _ ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger.
func (NopLogger) Error(_ string, _ ...any) {}

var _ Logger = NopLogger{}

// SlogAdapter wraps a *slog.Logger to implement Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. A nil logger uses slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug implements Logger.
func (s *SlogAdapter) Debug(msg string, attrs ...any) { s.logger.Debug(msg, attrs...) }

// Warn implements Logger.
func (s *SlogAdapter) Warn(msg string, attrs ...any) { s.logger.Warn(msg, attrs...) }

// Error implements Logger.
func (s *SlogAdapter) Error(msg string, attrs ...any) { s.logger.Error(msg, attrs...) }

var _ Logger = (*SlogAdapter)(nil)
