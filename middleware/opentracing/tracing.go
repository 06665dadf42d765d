package opentracing

import (
	"context"

	"github.com/fyerfyer/fyer-docstore/docstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

var defaultInstrumentationName = "fyer-docstore"

func (m *MiddlewareBuilder) Build() docstore.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(defaultInstrumentationName)
	}

	return func(next docstore.Handler) docstore.Handler {
		return docstore.HandlerFunc(func(ctx context.Context, cc *docstore.CommandContext) error {
			ctx, span := m.Tracer.Start(ctx, "docstore.batch."+cc.QueryType,
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(attribute.String("db.system", "postgresql"))
			span.SetAttributes(attribute.String("docstore.batch.id", cc.BatchID.String()))
			span.SetAttributes(attribute.Int("docstore.command.index", cc.Index))
			span.SetAttributes(attribute.Int("docstore.command.statements", len(cc.Calls)))

			err := next.HandleCommand(ctx, cc)
			span.SetAttributes(attribute.Int("docstore.command.callback_failures", len(cc.Failures)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			if len(cc.Failures) > 0 {
				span.SetStatus(codes.Error, "callback failures")
			}
			return nil
		})
	}
}
