package session

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "tutor-sketchpad/internal/session"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	turnCounter, _ = meter.Int64Counter("sketchpad.session.turns",
		metric.WithDescription("User turns processed, by outcome"))
	frameCounter, _ = meter.Int64Counter("sketchpad.session.frames",
		metric.WithDescription("Outbound frames written"))
)
