package errhandling

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
)

// ErrorLogger records a failure before it is converted.
type ErrorLogger interface {
	LogError(err error, req Request)
}

// NopLogger discards everything. It is used in test mode.
type NopLogger struct{}

func (NopLogger) LogError(error, Request) {}

// ZerologLogger writes one structured event per failure. Client-side
// failures are logged at warn level, everything else at error level.
type ZerologLogger struct {
	Logger zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) ZerologLogger {
	return ZerologLogger{Logger: l}
}

func (z ZerologLogger) LogError(err error, req Request) {
	ev := z.Logger.Error()
	if ae, ok := apperr.As(err); ok {
		if ae.Status() < http.StatusInternalServerError {
			ev = z.Logger.Warn()
		}
		ev = ev.Str("code", ae.Code())
	}
	ev.Err(err).
		Str("path", req.Path).
		Str("method", req.Method).
		Str("request_id", req.RequestID).
		Msg("request failed")
}
