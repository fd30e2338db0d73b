package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/notebot/core/buildinfo"
	"github.com/m3rciful/notebot/core/logger"
)

const checkTimeout = 2 * time.Second

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
	Commit        string  `json:"commit"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version"`
}

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(start).Seconds(),
			Version:       buildinfo.Version,
			Commit:        buildinfo.Commit,
			BuildDate:     buildinfo.Date,
			GoVersion:     runtime.Version(),
		})
	}
}

func readyz(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true, Checks: make(map[string]string, len(checks))}
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := c.Ping(ctx)
			cancel()
			if err != nil {
				resp.Ready = false
				resp.Checks[c.Name] = "fail"
				logger.HTTP.Warn("readiness check failed",
					slog.String("event", "http.readyz"),
					slog.String("status", "fail"),
					slog.String("check", c.Name),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(ww, r)
		logger.HTTP.LogAttrs(r.Context(), slog.LevelDebug, "http request",
			slog.String("event", "http.request"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.status),
			slog.Int("bytes", ww.bytes),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
