package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storekit/pos/internal/domain/cart"
	"github.com/storekit/pos/internal/domain/event"
	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/sale"
	"github.com/storekit/pos/internal/domain/stock"
	"github.com/storekit/pos/internal/observability"
	"github.com/storekit/pos/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService   = "checkout-service"
	useCaseFinishSale = "checkout.finish_sale"
	spanPrefix        = "UC."
	publishPeer       = "eventbus"
	endpointCompleted = "sale.completed"
	publishTimeout    = 300 * time.Millisecond
)

// Phases of one checkout attempt, recorded as span events while it runs.
const (
	phaseReserving  = "reserving"
	phaseCommitting = "committing"
)

var (
	ErrEmptyCart   = errors.New("checkout: cart is empty")
	ErrPersistence = errors.New("checkout: sale could not be persisted")
)

type IDGenerator interface {
	NewID() string
}

// FinishSaleUseCase turns a cart into a persisted sale. Stock is reserved per
// line before the sale is written and committed only after; every failure
// branch releases whatever was reserved, so an aborted attempt leaves the
// ledger exactly as it found it.
type FinishSaleUseCase struct {
	ledger      *stock.Ledger
	sales       sale.Repository
	idGenerator IDGenerator
	publisher   event.Publisher
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewFinishSaleUseCase(
	ledger *stock.Ledger,
	sales sale.Repository,
	idGen IDGenerator,
	publisher event.Publisher,
	tel observability.Observability,
) *FinishSaleUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLog := tel.Logger().With(
		observability.F("service", checkoutService),
	)
	metrics := tel.Metrics()

	return &FinishSaleUseCase{
		ledger:       ledger,
		sales:        sales,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type Result struct {
	SaleID      string
	TotalAmount money.Cents
	Sale        *sale.Sale
}

// Execute finalizes the cart. Lines are reserved in first-add order; the
// first shortfall releases everything taken so far, in reverse order, and the
// whole attempt fails without a sale. A persistence failure after all
// reservations succeeded triggers the same compensating release before the
// error surfaces. Only a fully persisted sale commits its reservations and
// clears the cart.
func (uc *FinishSaleUseCase) Execute(ctx context.Context, c *cart.Cart) (_ *Result, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseFinishSale))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"FinishSale",
		attribute.String("use_case", useCaseFinishSale),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var saleID string
	var publishErr error

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseFinishSale),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseFinishSale),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if saleID != "" {
			fields = append(fields, observability.F("sale_id", saleID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if c == nil || c.Empty() {
		outcome, statusText = "error", "EMPTY_CART"
		return nil, ErrEmptyCart
	}
	if err = ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	lines := c.Lines()
	span.AddEvent("checkout.phase", trace.WithAttributes(attribute.String("phase", phaseReserving)))

	reservations := make([]*stock.Reservation, 0, len(lines))
	releaseAll := func() {
		for i := len(reservations) - 1; i >= 0; i-- {
			uc.ledger.Release(reservations[i])
		}
	}

	for _, line := range lines {
		res, rerr := uc.ledger.TryReserve(line.ProductID, line.Quantity)
		if rerr != nil {
			releaseAll()
			outcome, statusText = "error", "RESERVE_FAILED"
			err = fmt.Errorf("checkout: reserve %s: %w", line.ProductID, rerr)
			return nil, err
		}
		reservations = append(reservations, res)
	}

	items := make([]sale.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, sale.Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	saleID = uc.idGenerator.NewID()
	entity, derr := sale.New(saleID, items)
	if derr != nil {
		releaseAll()
		outcome, statusText = "error", "SALE_CONSTRUCTION_FAILED"
		err = fmt.Errorf("checkout: construct sale: %w", derr)
		return nil, err
	}

	span.AddEvent("checkout.phase", trace.WithAttributes(attribute.String("phase", phaseCommitting)))

	if perr := uc.sales.Create(ctx, entity); perr != nil {
		// Compensating action: the sale never happened, give the stock back.
		releaseAll()
		outcome, statusText = "error", "SALE_PERSIST_FAILED"
		err = fmt.Errorf("%w: %w", ErrPersistence, perr)
		return nil, err
	}

	for _, res := range reservations {
		uc.ledger.Commit(res)
	}

	c.Clear()

	publishErr = uc.publish(ctx, sale.NewSaleCompletedEvent(entity))
	if publishErr != nil {
		// The sale is durable and stock committed; a lost audit event is
		// logged but does not fail the checkout.
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.SetAttributes(attribute.String("sale.id", entity.ID))
	span.AddEvent("sale.completed",
		trace.WithAttributes(attribute.String("sale.id", entity.ID)),
	)

	return &Result{SaleID: entity.ID, TotalAmount: entity.TotalAmount, Sale: entity}, nil
}

func (uc *FinishSaleUseCase) publish(ctx context.Context, e event.Event) error {
	if uc.publisher == nil || e == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, e)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", endpointCompleted),
			observability.L("outcome", outcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", endpointCompleted),
		)
	}

	return err
}
