package otel

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RecordError marks span as failed. Errors coming back from the marketplace backend also carry its status code.
func RecordError(err error, span trace.Span) {
	if err == nil {
		return
	}
	var opts []trace.EventOption
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		opts = append(opts, trace.WithAttributes(attribute.Int("backend.status_code", sc.StatusCode())))
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err, opts...)
}
