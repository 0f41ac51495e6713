package service

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kkkkikiki/punchcard/internal/tracing"
)

var tracer = otel.Tracer("punchcard/service")

// NewLoggingInterceptor continues the caller's trace, attaches a
// request-scoped logger to the context and logs each call with its outcome.
func NewLoggingInterceptor(logger zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header()))
			ctx, span := tracer.Start(ctx, procedure, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			l := logger.With().
				Str("procedure", procedure).
				Str("peer", req.Peer().Addr).
				Str("trace_id", tracing.TraceID(ctx)).
				Logger()
			ctx = l.WithContext(ctx)

			start := time.Now()
			res, err := next(ctx, req)

			ev := l.Debug()
			if err != nil {
				code := connect.CodeOf(err)
				span.SetStatus(codes.Error, code.String())
				ev = l.Info().Str("code", code.String())
			}
			ev.Dur("duration", time.Since(start)).Msg("handled request")
			return res, err
		}
	}
}
