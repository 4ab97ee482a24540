package log

import (
	"time"
)

// HTTPLogEntry represents an HTTP request/response log entry
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	Session    string
}

// LogHTTPRequest writes one structured line per served request.
// Server errors are logged at error level.
func LogHTTPRequest(e HTTPLogEntry) {
	fields := []interface{}{
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}
	if e.Session != "" {
		fields = append(fields, "session", e.Session)
	}

	if e.Status >= 500 {
		Errorw("http request", fields...)
		return
	}
	Infow("http request", fields...)
}
