// Package otel provides OpenTelemetry instrumentation for TaskForge.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskforge"

// StartTaskSpan starts a span for one task processing pass.
func StartTaskSpan(ctx context.Context, taskID, ownerID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task.process",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("owner.id", ownerID),
		),
	)
}

// StartToolCallSpan starts a span for a tool invocation within a task.
func StartToolCallSpan(ctx context.Context, taskID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("toolcall.tool", tool),
		),
	)
}
