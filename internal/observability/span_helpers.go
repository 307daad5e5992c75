package observability

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FinishSpan ends span, marking it failed when *errPtr is non-nil. Service
// and database methods defer it with their named error return so a feedback
// lookup or notification send that fails late still flags its span:
//
//	ctx, span := TraceFeedbackFunction(ctx, "GetFeedbackByID")
//	defer FinishSpan(span, &err)
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	defer span.End()
	if errPtr == nil || *errPtr == nil {
		return
	}
	span.RecordError(*errPtr, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, (*errPtr).Error())
}
