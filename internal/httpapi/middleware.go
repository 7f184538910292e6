package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/metrics"
	"github.com/Shuru63/skylark-lab-assignment/internal/model"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
)

const (
	requestIDHeader     = "X-Request-Id"
	producerTokenHeader = "X-Producer-Token"

	maxRequestIDLen = 64
)

type contextKey string

const ctxIdentity contextKey = "identity"

func identityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(model.Identity)
	return id, ok
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validRequestID(r.Header.Get(requestIDHeader)) {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(w, r)
	})
}

// validRequestID accepts short ids made of letters, digits, '-', '_' and '.'.
// Anything else is replaced before it reaches logs or the response.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// loggingMiddleware writes one access log line per request and records
// request metrics by route pattern. The wrapped writer keeps Hijack
// available for websocket upgrades.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, status, elapsed)

		logging.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Msg("http request")
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Error().
				Str("panic", fmt.Sprint(rec)).
				Str("request_id", r.Header.Get(requestIDHeader)).
				Msg("handler panicked")
			writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// requireUser admits requests carrying a valid bearer token whose subject
// still exists, and attaches the caller's identity to the context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims, err := s.tokens.Verify(tok)
		if err != nil {
			logging.Debug().Err(err).Str("request_id", r.Header.Get(requestIDHeader)).Msg("token rejected")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			logging.Error().Err(err).Str("user_id", claims.UserID).Msg("load token subject")
			writeError(w, http.StatusInternalServerError, "internal", "failed to load user")
			return
		}

		ctx := context.WithValue(r.Context(), ctxIdentity, user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireProducer guards alert submission with the shared producer token
// when one is configured.
func (s *Server) requireProducer(next http.Handler) http.Handler {
	want := []byte(s.cfg.Auth.ProducerToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(want) > 0 {
			got := []byte(r.Header.Get(producerTokenHeader))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid producer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
