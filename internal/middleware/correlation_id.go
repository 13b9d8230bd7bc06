package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
)

const HeaderCorrelationID = "X-Correlation-Id"

type ctxKey string

const ctxCorrelationID ctxKey = "correlation_id"

// CorrelationID accepts or mints a correlation id, echoes it to the client and
// seeds the event metadata so events emitted while serving the request carry it.
// The chi request id, when present, becomes the causation id.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}
		w.Header().Set(HeaderCorrelationID, cid)

		ctx := context.WithValue(r.Context(), ctxCorrelationID, cid)
		ctx = events.WithMetadata(ctx, events.EnvelopeMetadata{
			CorrelationID: cid,
			CausationID:   chimw.GetReqID(ctx),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetCorrelationID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return s
	}
	return ""
}
