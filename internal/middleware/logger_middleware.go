package middleware

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"time"
)

const identityKey contextKey = "identity"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// identity is filled in by AuthMiddleware further down the chain so the
// access log can name the caller.
type identity struct {
	username string
}

func LoggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			id := &identity{}
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))

			next.ServeHTTP(rw, r)

			user := id.username
			if user == "" {
				user = "anonymous"
			}

			log.Printf("[%s] %s %s - Status: %d - Duration: %v - User: %s",
				r.Method,
				r.URL.Path,
				r.RemoteAddr,
				rw.statusCode,
				time.Since(start),
				user,
			)
		})
	}
}

func setIdentity(r *http.Request, username string) {
	if id, ok := r.Context().Value(identityKey).(*identity); ok {
		id.username = username
	}
}

func logf(r *http.Request, format string, args ...interface{}) {
	log.Printf("[%s] %s: "+format, append([]interface{}{r.Method, r.URL.Path}, args...)...)
}
