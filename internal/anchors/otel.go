package anchors

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/spatialhue/lightcontrol/internal/anchors"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
