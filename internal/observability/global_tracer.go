package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer("feedback-portal")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer("feedback-portal")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceFeedbackFunction starts a new span for a feedback service function.
func TraceFeedbackFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "feedback", functionName, attributes...)
}

// TraceClarificationFunction starts a new span for a clarification service function.
func TraceClarificationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "clarification", functionName, attributes...)
}

// TraceSettingsFunction starts a new span for a settings service function.
func TraceSettingsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "settings", functionName, attributes...)
}

// TraceNotificationFunction starts a new span for a notification service function.
func TraceNotificationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "notification", functionName, attributes...)
}

// TraceAIFunction starts a new span for an AI service function.
func TraceAIFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "ai", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeFeedbackID returns a tracing attribute for a feedback ID.
func AttributeFeedbackID(id string) attribute.KeyValue {
	return attribute.String("feedback.id", id)
}

// AttributeStatus returns a tracing attribute for a feedback status.
func AttributeStatus(status string) attribute.KeyValue {
	return attribute.String("feedback.status", status)
}

// AttributeUrgency returns a tracing attribute for an urgency level.
func AttributeUrgency(urgency string) attribute.KeyValue {
	return attribute.String("feedback.urgency", urgency)
}

// AttributeEventType returns a tracing attribute for a notification event type.
func AttributeEventType(event string) attribute.KeyValue {
	return attribute.String("notification.event", event)
}

// AttributeChannel returns a tracing attribute for a notification channel type.
func AttributeChannel(channel string) attribute.KeyValue {
	return attribute.String("notification.channel", channel)
}

// AttributeLimit returns a tracing attribute for a limit value.
func AttributeLimit(limit int) attribute.KeyValue {
	return attribute.Int("limit", limit)
}

// AttributeOffset returns a tracing attribute for an offset value.
func AttributeOffset(offset int) attribute.KeyValue {
	return attribute.Int("offset", offset)
}
