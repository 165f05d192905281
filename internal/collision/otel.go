package collision

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/spatialhue/lightcontrol/internal/collision"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
