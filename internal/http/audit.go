package httpx

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// audit tags the request with an id, then records one metric sample and one
// http_request log line once next returns.
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := strings.TrimSpace(req.Header.Get(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(rec, req)
		elapsed := time.Since(start)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := rec.statusCode()
		r.recordRequestMetrics(req.Method, route, status, elapsed)

		attrs := []slog.Attr{
			slog.String("request_id", reqID),
			slog.String("method", req.Method),
			slog.String("route", route),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.bytes),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		}
		if ip := clientIP(req); ip != "" {
			attrs = append(attrs, slog.String("ip", ip))
		}
		r.logger.LogAttrs(req.Context(), levelForStatus(status), "http_request", attrs...)
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// clientIP is the caller as reported by the first X-Forwarded-For hop, for logs only.
func clientIP(req *http.Request) string {
	if first, _, _ := strings.Cut(req.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return remoteHost(req)
}

// statusRecorder captures the status and size of a response. Streaming handlers
// reach the underlying writer through Unwrap or the Hijack passthrough.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) statusCode() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	_ = http.NewResponseController(sr.ResponseWriter).Flush()
}

// Hijack hands the connection to the websocket upgrader and records 101.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(sr.ResponseWriter).Hijack()
	if err != nil {
		return nil, nil, fmt.Errorf("hijack member feed connection: %w", err)
	}
	if sr.status == 0 {
		sr.status = http.StatusSwitchingProtocols
	}
	return conn, rw, nil
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
