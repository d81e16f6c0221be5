package rest

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey string

const (
	userIDKey    ctxKey = "user_id"
	requestIDKey ctxKey = "request_id"
)

const RequestIDHeader = "X-Request-ID"

// TokenVerifier resolves a presented token to the subject id it was
// issued for.
type TokenVerifier interface {
	Verify(token string, now time.Time) (string, error)
}

// UserIDFromContext returns the subject attached by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// AuthMiddleware gates protected handlers. A request either continues with
// the subject id in its context or ends here with a 403.
type AuthMiddleware struct {
	verifier TokenVerifier
	metrics  *metrics.Metrics
	log      logging.Logger
	now      func() time.Time
}

func NewAuthMiddleware(v TokenVerifier, m *metrics.Metrics, log logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: v,
		metrics:  m,
		log:      log.With("module", "rest.auth"),
		now:      time.Now,
	}
}

// gateFailure is the terminal outcome of a rejected request.
type gateFailure struct {
	message string
	err     error
}

// authenticate is the gate stage. It never calls the next handler; it only
// decides.
func (m *AuthMiddleware) authenticate(r *http.Request) (context.Context, *gateFailure) {
	token := extractToken(r.Header.Get(common.AuthorizationHeaderName))
	if token == "" {
		return nil, &gateFailure{message: MsgNoToken, err: common.ErrNoToken}
	}

	subject, err := m.verifier.Verify(token, m.now())
	if err != nil {
		return nil, &gateFailure{message: MsgInvalidToken, err: err}
	}
	if subject == "" {
		return nil, &gateFailure{message: MsgInvalidPayload, err: common.ErrTokenInvalidClaims}
	}

	return context.WithValue(r.Context(), userIDKey, subject), nil
}

// Handler wraps next with the gate.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, fail := m.authenticate(r)
		if fail != nil {
			m.metrics.RecordAuth("gate", outcomeFor(fail.err))
			m.log.Debug(r.Context(), "request rejected at gate", "reason", fail.err, "path", r.URL.Path)
			writeJSON(w, http.StatusForbidden, messageResponse{Message: fail.message})
			return
		}
		m.metrics.RecordAuth("gate", metrics.OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken accepts a bare token or "Bearer <token>".
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(common.BearerPrefix) && strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		header = header[len(common.BearerPrefix):]
	}
	return strings.TrimSpace(header)
}

// RequestID adds a unique request ID to each request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger logs every request once it has been served.
func Logger(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFromContext(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Recovery turns a panic into a 500.
func Recovery(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"request_id", RequestIDFromContext(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
					)
					writeJSON(w, http.StatusInternalServerError, messageResponse{Message: MsgInternal})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the browser front end to call the API. Preflight requests
// are answered here and never reach the router.
func CORS(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// instrument records request durations by route template. It runs inside
// the router, where the matched route is known.
func instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.URL.Path
			if cr := mux.CurrentRoute(r); cr != nil {
				if tpl, err := cr.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveRequest(r.Method, route, wrapped.status, time.Since(start))
		})
	}
}
