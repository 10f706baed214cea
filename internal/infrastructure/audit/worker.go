package audit

import (
	"context"

	"github.com/storekit/pos/internal/domain/event"
	"github.com/storekit/pos/internal/domain/sale"
	"github.com/storekit/pos/internal/observability"
	"github.com/storekit/pos/internal/observability/logctx"
)

// Worker projects completed sales onto the structured log as an audit trail.
type Worker struct {
	subscriber event.Subscriber
	log        observability.Logger
}

func New(subscriber event.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "sale_audit")),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(sale.SaleCompletedEvent{}.EventName(), w.handleSaleCompleted)
}

func (w *Worker) handleSaleCompleted(ctx context.Context, e event.Event) error {
	evt, ok := e.(sale.SaleCompletedEvent)
	if !ok {
		return nil
	}

	logger := logctx.FromOr(ctx, w.log)
	logger.Info("sale_recorded",
		observability.F("sale_id", evt.SaleID),
		observability.F("total_amount", evt.TotalAmount.String()),
		observability.F("item_count", len(evt.Items)),
	)
	return nil
}
