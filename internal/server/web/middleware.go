package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/server/auth"
	"github.com/dkovalev/notelist/internal/server/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKeyClaims struct{}

// responseRecorder captures the status code and body size for the logging and
// metrics middleware.
type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()

		start := time.Now()
		rr := &responseRecorder{w: w}
		log := s.logger.With(
			"http.req.path", r.URL.Path,
			"http.req.method", r.Method,
			"http.req.id", requestID,
		)

		defer func() {
			log.Info(r.Context(), "request complete",
				"http.resp.took_ms", int64(time.Since(start)/time.Millisecond),
				"http.resp.status", rr.status,
				"http.resp.bytes", rr.b)
		}()

		next.ServeHTTP(rr, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rr := &responseRecorder{w: w}

		next.ServeHTTP(rr, r)

		status := rr.status
		if status == 0 {
			status = http.StatusOK
		}
		// Label by route template, not the raw path: every note id in the URL
		// would otherwise mint a new label value.
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		metrics.HTTPRequestsCounter.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
		metrics.ResponseTimeHistogram.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}

// requireAuth resolves the session cookie to verified claims and injects them
// into the request context. Anything short of a fully valid session clears
// the cookie and redirects to the login entry point: this is an
// access-control boundary, not a validation error.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(common.SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		claims, err := s.users.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			s.logger.Debug(r.Context(), "Session rejected", "reason", err)
			clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentClaims returns the authenticated identity resolved by requireAuth.
func currentClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(ctxKeyClaims{}).(*auth.Claims)
	return claims, ok
}

func setSessionCookie(w http.ResponseWriter, token string, validity time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(validity.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
