package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID returns a context carrying the request id used by Time.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation at debug level, or at warn level
// with the error when *errp is non-nil.
//
//	defer obs.Time(ctx, "passio.GetStops")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Warn().Str("req_id", reqID).Str("op", name).Dur("dur", dur).Err(*errp).Msg("operation failed")
			return
		}
		log.Debug().Str("req_id", reqID).Str("op", name).Dur("dur", dur).Msg("operation done")
	}
}
