// Package trace assigns request IDs and logs request start and completion.
package trace

import (
	"context"
	"net/http"
	"time"

	applog "fintrack/internal/log"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxInboundIDLen = 64

type requestIDKey struct{}

// Middleware tags each request with an ID and a request-scoped logger.
type Middleware struct {
	logger   *applog.Logger
	clientOf func(*http.Request) string
}

// NewMiddleware returns a trace middleware. clientOf may be nil.
func NewMiddleware(logger *applog.Logger, clientOf func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger, clientOf: clientOf}
}

// Middleware honours a well-formed inbound X-Request-ID and generates one
// otherwise. The ID is echoed on the response.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if !validInboundID(id) {
			id = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)

		var client string
		if m.clientOf != nil {
			client = m.clientOf(r)
		}

		logger := m.logger.With(applog.FieldRequestID, id)
		ctx := applog.WithLogger(context.WithValue(r.Context(), requestIDKey{}, id), logger)
		r = r.WithContext(ctx)
		logger.RequestStarted(ctx, r, client)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.RequestCompleted(ctx, r, status, time.Since(start), client)
	})
}

func validInboundID(id string) bool {
	if id == "" || len(id) > maxInboundIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// NewRequestID returns a unique, time-sortable request ID.
func NewRequestID() string {
	return "req_" + ulid.Make().String()
}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
