package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keisui/shopcore/internal/application/reservation"
	"github.com/keisui/shopcore/internal/domain/actor"
	domain "github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/domain/txn"
	"github.com/keisui/shopcore/internal/observability"
	"github.com/keisui/shopcore/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "order-service"
	spanPrefix  = "UC."

	useCaseCreate = "order.create"
	useCaseList   = "order.list"
	useCasePay    = "order.pay"
	useCaseCancel = "order.cancel"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

// Service drives the order state machine: creation (with stock
// reservation), listing, payment, and cancellation (with stock restore).
// Every mutating path runs inside exactly one transaction opened through
// the injected manager.
type Service struct {
	orders      domain.Repository
	engine      ReservationEngine
	tx          txn.Manager
	idGenerator IDGenerator
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

// NewService wires the dependencies required to execute the order
// lifecycle. A nil telemetry provider degrades to nop instruments.
func NewService(
	orders domain.Repository,
	engine ReservationEngine,
	tx txn.Manager,
	idGen IDGenerator,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLog := tel.Logger().With(observability.F("service", serviceName))

	return &Service{
		orders:       orders,
		engine:       engine,
		tx:           tx,
		idGenerator:  idGen,
		tel:          tel,
		log:          baseLog,
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type CreateOrderInput struct {
	UserID string
	Items  []reservation.Demand
}

// Create reserves stock for every demanded line and writes the new order
// in one transaction. On any failure nothing persists: no order record, no
// stock change.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (_ *domain.Order, err error) {
	ctx, op := s.startOp(ctx, useCaseCreate,
		attribute.String("order.user_id", input.UserID),
		attribute.Int("order.lines", len(input.Items)),
	)
	defer func() { op.end(ctx, err) }()

	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}
	for _, d := range input.Items {
		if d.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var created *domain.Order
	err = txn.Within(ctx, s.tx, func(ctx context.Context, tx txn.Txn) error {
		items, rerr := s.engine.Reserve(ctx, tx, input.Items)
		if rerr != nil {
			return rerr
		}

		entity, derr := domain.New(s.idGenerator.NewID(), input.UserID, items)
		if derr != nil {
			return derr
		}
		if cerr := s.orders.Create(ctx, tx, entity); cerr != nil {
			return wrapRepositoryError(cerr)
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	op.span.SetAttributes(attribute.String("order.id", created.ID))
	op.span.AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", created.ID)),
	)
	return created, nil
}

// List returns every order for an admin and only the actor's own orders
// otherwise. Read-only; no transaction.
func (s *Service) List(ctx context.Context, act actor.Actor) (_ []*domain.Order, err error) {
	ctx, op := s.startOp(ctx, useCaseList,
		attribute.String("actor.role", string(act.Role)),
	)
	defer func() { op.end(ctx, err) }()

	if act.IsAdmin() {
		return s.orders.FindAll(ctx)
	}
	return s.orders.FindByUserID(ctx, act.ID)
}

// Pay transitions the order to paid. Paying an already-paid order is a
// success that performs no write; paying a cancelled order is an invalid
// transition. Stock is untouched either way.
func (s *Service) Pay(ctx context.Context, orderID string, act actor.Actor) (_ *domain.Order, err error) {
	ctx, op := s.startOp(ctx, useCasePay,
		attribute.String("order.id", orderID),
	)
	defer func() { op.end(ctx, err) }()

	for {
		entity, err := s.loadOwned(ctx, orderID, act)
		if err != nil {
			return nil, err
		}

		prev := entity.Status
		changed, err := entity.Pay()
		if err != nil {
			return nil, err
		}
		if !changed {
			op.span.AddEvent("order.pay_replay")
			return entity, nil
		}

		var updated *domain.Order
		err = txn.Within(ctx, s.tx, func(ctx context.Context, tx txn.Txn) error {
			u, uerr := s.orders.UpdateStatus(ctx, tx, orderID, prev, domain.StatusPaid)
			if uerr != nil {
				return wrapRepositoryError(uerr)
			}
			updated = u
			return nil
		})
		if errors.Is(err, domain.ErrStaleStatus) {
			// Lost the status race; re-load and re-drive the state machine.
			// The second pass lands on a terminal status, so this settles in
			// one retry: replay becomes a no-op, conflict becomes an error.
			op.span.AddEvent("order.status_race")
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
}

// Cancel transitions the order to cancelled and restores the reserved
// stock, atomically: the restore never becomes visible without the status
// change and vice versa. Cancelling an already-cancelled order is a no-op
// success (stock is restored exactly once). A paid order can only be
// cancelled by an admin.
func (s *Service) Cancel(ctx context.Context, orderID string, act actor.Actor) (_ *domain.Order, err error) {
	ctx, op := s.startOp(ctx, useCaseCancel,
		attribute.String("order.id", orderID),
	)
	defer func() { op.end(ctx, err) }()

	for {
		entity, err := s.loadOwned(ctx, orderID, act)
		if err != nil {
			return nil, err
		}

		prev := entity.Status
		changed, err := entity.Cancel(act.IsAdmin())
		if err != nil {
			return nil, err
		}
		if !changed {
			// Idempotent replay: open and discard a transaction with no
			// writes staged, keeping the write path uniform.
			if tx, berr := s.tx.Begin(ctx); berr == nil {
				_ = s.tx.Abort(ctx, tx)
			}
			op.span.AddEvent("order.cancel_replay")
			return entity, nil
		}

		var updated *domain.Order
		err = txn.Within(ctx, s.tx, func(ctx context.Context, tx txn.Txn) error {
			if rerr := s.engine.Restore(ctx, tx, entity.Items); rerr != nil {
				return rerr
			}
			u, uerr := s.orders.UpdateStatus(ctx, tx, orderID, prev, domain.StatusCancelled)
			if uerr != nil {
				return wrapRepositoryError(uerr)
			}
			updated = u
			return nil
		})
		if errors.Is(err, domain.ErrStaleStatus) {
			// Lost the status race. The abort already rolled the restore
			// back, so stock moves at most once; re-load and re-drive.
			op.span.AddEvent("order.status_race")
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
}

// loadOwned fetches the order and enforces ownership: a non-admin actor
// may only touch orders it owns.
func (s *Service) loadOwned(ctx context.Context, orderID string, act actor.Actor) (*domain.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}
	entity, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	if !act.IsAdmin() && !entity.OwnedBy(act.ID) {
		return nil, domain.ErrNotOwner
	}
	return entity, nil
}

// opSpan carries the per-operation span, timer, and logger so each use
// case can finish with one deferred call.
type opSpan struct {
	s       *Service
	span    trace.Span
	useCase string
	start   time.Time
	logger  observability.Logger
}

func (s *Service) startOp(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, *opSpan) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))

	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+useCase, attrs...)

	return ctx, &opSpan{
		s:       s,
		span:    span,
		useCase: useCase,
		start:   time.Now(),
		logger:  logger,
	}
}

func (op *opSpan) end(ctx context.Context, err error) {
	lat := time.Since(op.start).Seconds()
	outcome := "success"

	if err != nil {
		outcome = "error"
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	} else {
		op.span.SetStatus(codes.Ok, "OK")
	}
	op.span.End()

	op.s.reqCounter.Add(1,
		observability.L("use_case", op.useCase),
		observability.L("outcome", outcome),
	)
	op.s.durHistogram.Observe(lat,
		observability.L("use_case", op.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	op.logger.Info("use_case_done", fields...)
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrStaleStatus):
		// Passed through intact so the caller can retry the transition.
		return err
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
