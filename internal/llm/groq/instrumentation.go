package groq

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "tutor-sketchpad/internal/llm/groq"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	fragmentCounter, _ = meter.Int64Counter("sketchpad.llm.groq.fragments")
)
