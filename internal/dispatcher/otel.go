package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/spatialhue/lightcontrol/internal/dispatcher"

type instruments struct {
	queueSize metric.Int64ObservableGauge
	handled   metric.Int64Counter
	drops     metric.Int64Counter
}

// newInstruments creates the dispatcher metrics. eachQueue is called on every
// collection to observe the queue depth per command.
func newInstruments(eachQueue func(func(command string, queued int))) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	ins := &instruments{}

	var err error
	ins.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Commands waiting to be sent"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		eachQueue(func(command string, queued int) {
			o.ObserveInt64(ins.queueSize, int64(queued), metric.WithAttributes(attribute.String("command", command)))
		})
		return nil
	}, ins.queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	ins.handled, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Commands handled, successful or not"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	ins.drops, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Commands rejected because their queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return ins, nil
}

func (ins *instruments) processed(command string) {
	ins.handled.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}

func (ins *instruments) dropped(command string) {
	ins.drops.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}
