package cloudauth

import (
	"net/http"
	"strings"
)

// Tracer receives every cloud response when tracing is enabled. It is a
// debugging aid only and never influences the flow.
type Tracer interface {
	TraceResponse(name string, resp *http.Response, body []byte)
}

// Logger is the logging interface used by the session.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LogTracer writes one info record per traced response, so enabling
// Config.Trace is enough to see them at the default log level.
type LogTracer struct {
	logger Logger
}

// NewLogTracer returns a Tracer backed by logger.
func NewLogTracer(logger Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// TraceResponse logs the status, headers and body of resp.
func (t *LogTracer) TraceResponse(name string, resp *http.Response, body []byte) {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}
	t.logger.Info("cloud response",
		"call", name,
		"status", resp.StatusCode,
		"headers", headers,
		"body", string(body),
	)
}
