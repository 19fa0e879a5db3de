// Package tracing provides an OpenTelemetry middleware for fieldmap tools.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/fieldmap"
)

const instrumentationName = "github.com/skosovsky/fieldmap/ext/tracing"

// Attribute keys recorded on every tool span.
const (
	AttrToolName    = attribute.Key("fieldmap.tool.name")
	AttrToolVersion = attribute.Key("fieldmap.tool.version")
	AttrArgsBytes   = attribute.Key("fieldmap.tool.args_bytes")
	AttrResultBytes = attribute.Key("fieldmap.tool.result_bytes")
	AttrErrorKind   = attribute.Key("fieldmap.error.kind")
)

// Middleware starts a span per Execute. A nil tracer falls back to the global provider.
func Middleware(tracer trace.Tracer) fieldmap.Middleware {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return func(next fieldmap.Tool) fieldmap.Tool {
		return &tracedTool{ToolBase: fieldmap.ToolBase{Next: next}, tracer: tracer}
	}
}

type tracedTool struct {
	fieldmap.ToolBase
	tracer trace.Tracer
}

func (t *tracedTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	name := t.Next.Name()
	attrs := []attribute.KeyValue{
		AttrToolName.String(name),
		AttrArgsBytes.Int(len(args)),
	}
	if v := t.Version(); v != "" {
		attrs = append(attrs, AttrToolVersion.String(v))
	}
	ctx, span := t.tracer.Start(ctx, "tool "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	res, err := t.Next.Execute(ctx, args)
	if err != nil {
		span.SetAttributes(AttrErrorKind.String(errorKind(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(AttrResultBytes.Int(len(res)))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func errorKind(err error) string {
	switch {
	case fieldmap.IsClientError(err):
		return "client"
	case fieldmap.IsSystemError(err):
		return "system"
	default:
		return "other"
	}
}

var _ fieldmap.ToolMetadata = (*tracedTool)(nil)
