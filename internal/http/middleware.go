package httpapi

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/ride-sim/internal/observability"
)

type contextKey string

const scopeKey contextKey = "request-scope"

// requestScope travels with a request. Handlers fill in the simulation they
// touched so the access log can name it.
type requestScope struct {
	requestID   string
	runID       string
	watcherID   string
	fingerprint string
	cached      bool
}

func (s *Server) registerMiddleware() {
	s.mux.Use(s.recoverMiddleware)
	s.mux.Use(s.scopeMiddleware)
	s.mux.Use(s.accessLogMiddleware)
}

// scopeMiddleware assigns the request id (from X-Request-ID when given) and
// echoes it back.
func (s *Server) scopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := &requestScope{requestID: r.Header.Get("X-Request-ID")}
		if sc.requestID == "" {
			sc.requestID = newID()
		}
		w.Header().Set("X-Request-ID", sc.requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey, sc)))
	})
}

func scopeFrom(ctx context.Context) *requestScope {
	if sc, ok := ctx.Value(scopeKey).(*requestScope); ok {
		return sc
	}
	return &requestScope{}
}

// noteRun records the simulation a request created or read.
func noteRun(ctx context.Context, runID, fingerprint string, cached bool) {
	sc := scopeFrom(ctx)
	sc.runID, sc.fingerprint, sc.cached = runID, fingerprint, cached
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		route := routeTemplate(r)
		code := strconv.Itoa(rw.status)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(elapsed.Seconds())

		sc := scopeFrom(r.Context())
		args := []any{
			"method", r.Method,
			"route", route,
			"status", rw.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", remoteIP(r),
			"request_id", sc.requestID,
		}
		if sc.runID != "" {
			args = append(args, "run_id", sc.runID, "fingerprint", sc.fingerprint, "cached", sc.cached)
		}
		if sc.watcherID != "" {
			args = append(args, "watcher_id", sc.watcherID)
		}
		s.logger.Info("http_request", args...)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "error", rec, "path", r.URL.Path, "request_id", scopeFrom(r.Context()).requestID)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func routeTemplate(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tmpl, err := cur.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
