package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InjectTraceID attaches a fresh trace id to the context's logger so
// every log line emitted downstream carries it.
func InjectTraceID(ctx context.Context) context.Context {
	logger := log.With().Str("traceId", uuid.NewString()).Logger()
	return logger.WithContext(ctx)
}
