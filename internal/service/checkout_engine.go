package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"duck-storefront/internal/gateway"
	"duck-storefront/internal/models"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State of a checkout attempt
type State string

const (
	StateIdle               State = "IDLE"
	StateValidating         State = "VALIDATING"
	StateSettling           State = "SETTLING"
	StateAwaitingCorrection State = "AWAITING_CORRECTION"
	StateAborted            State = "ABORTED"
	StateCleaningUp         State = "CLEANING_UP_CUSTOM_ITEMS"
	StateReceiptReady       State = "RECEIPT_READY"
)

// Outcome is how a checkout attempt ended. AwaitingCorrection and Aborted leave the
// buyer back at Idle; only ReceiptReady is terminal.
type Outcome struct {
	State   State           `json:"state"`
	Failure FailureKind     `json:"failure,omitempty"`
	Err     error           `json:"-"`
	Form    FormState       `json:"form"`
	Cart    *models.Cart    `json:"cart,omitempty"`
	Receipt *models.Receipt `json:"receipt,omitempty"`
	// CleanupFailed counts custom ducks that could not be deleted after settlement.
	CleanupFailed int `json:"cleanupFailed,omitempty"`
}

// CheckoutEngine revalidates a cart against live stock and settles it
type CheckoutEngine struct {
	carts       CartGateway
	customs     CustomDuckGateway
	payments    PaymentCapturer
	publisher   EventPublisher
	guard       *Guard
	forms       *FormValidator
	parallelism int
	logger      *zap.Logger
}

// NewCheckoutEngine creates a checkout engine
func NewCheckoutEngine(
	carts CartGateway,
	customs CustomDuckGateway,
	payments PaymentCapturer,
	publisher EventPublisher,
	guard *Guard,
	parallelism int,
) *CheckoutEngine {
	if parallelism < 1 {
		parallelism = 1
	}
	return &CheckoutEngine{
		carts:       carts,
		customs:     customs,
		payments:    payments,
		publisher:   publisher,
		guard:       guard,
		forms:       NewFormValidator(),
		parallelism: parallelism,
		logger:      util.GetLogger(),
	}
}

// Submit runs one checkout attempt over the snapshot taken when checkout opened.
// A returned error means the attempt was refused or its view is gone; every other
// failure is reported through the Outcome and the sink.
func (e *CheckoutEngine) Submit(ctx context.Context, flow *Flow, data *models.CheckoutData, form CheckoutForm, sink notify.Sink) (*Outcome, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutEngine.Submit")
	defer span.End()

	if data == nil || data.Account == nil {
		return nil, session.ErrUnauthenticated
	}
	if err := session.Authorize(data.Account, session.RoleBuyer); err != nil {
		util.CheckoutRejectedTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	accountID := data.Account.ID
	span.SetAttributes(util.AttrAccountID.Int64(accountID))
	release, err := e.guard.Enter(ctx, accountID)
	if err != nil {
		util.CheckoutRejectedTotal.WithLabelValues("in_flight").Inc()
		e.logger.Warn("Rejected re-entrant checkout", zap.Int64("account_id", accountID))
		return nil, err
	}
	defer release()

	form.Prefill(data.Account)
	formState := e.forms.Validate(&form)
	if !formState.Valid() {
		util.CheckoutRejectedTotal.WithLabelValues("invalid_form").Inc()
		for _, msg := range e.forms.Messages(formState) {
			sink.Error(msg)
		}
		return &Outcome{State: StateIdle, Failure: FailureValidation, Err: ErrInvalidForm, Form: formState}, nil
	}

	util.CheckoutAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	a := &attempt{
		engine:    e,
		flow:      flow,
		sink:      sink,
		data:      data,
		card:      form.CardNumber,
		accountID: accountID,
		logger:    util.ForAccount(accountID),
	}

	outcome, err := a.run(ctx)
	if err != nil {
		util.CheckoutOutcomesTotal.WithLabelValues("ABANDONED").Inc()
		util.FailSpan(span, err)
		a.logger.Info("Checkout result discarded", zap.Error(err))
		return nil, err
	}
	outcome.Form = formState
	span.SetAttributes(util.AttrState.String(string(outcome.State)))
	util.CheckoutOutcomesTotal.WithLabelValues(string(outcome.State)).Inc()
	util.FailSpan(span, outcome.Err)

	a.logger.Info("Checkout finished",
		zap.String("state", string(outcome.State)),
		zap.String("failure", string(outcome.Failure)))
	return outcome, nil
}

// attempt carries one submission through the state machine
type attempt struct {
	engine    *CheckoutEngine
	flow      *Flow
	sink      notify.Sink
	data      *models.CheckoutData
	card      string
	accountID int64
	logger    *zap.Logger
}

func (a *attempt) run(ctx context.Context) (*Outcome, error) {
	cart := a.data.Cart.Clone()
	if cart == nil {
		cart = models.NewCart(a.accountID)
	}

	a.logger.Debug("Checkout state", zap.String("state", string(StateValidating)))
	v := a.engine.carts.ValidateCart(ctx, a.accountID)
	if !a.flow.Alive() {
		return nil, ErrFlowAbandoned
	}

	switch {
	case v.Adjusted():
		return a.correct(ctx, cart, v.Corrected)
	case v.Valid():
	case errors.Is(v.Err, gateway.ErrEmptyCart):
		if len(a.data.CustomDucks) == 0 {
			a.sink.Error(msgNothingToPurchase)
			return a.abort(v.Err), nil
		}
		// Only custom ducks are pending; the catalog leg is skipped.
		return a.settle(ctx, models.NewCart(a.accountID), false)
	default:
		a.logger.Error("Cart validation failed", zap.Error(v.Err))
		a.sink.Error(msgGenericFailure)
		return a.abort(v.Err), nil
	}

	return a.settle(ctx, cart, true)
}

func (a *attempt) abort(err error) *Outcome {
	failure := ClassifyFailure(err)
	if failure == FailureNone {
		failure = FailureServer
	}
	return &Outcome{State: StateAborted, Failure: failure, Err: err}
}

// correct adopts the server's corrected cart as local truth and stops the attempt
func (a *attempt) correct(ctx context.Context, before, corrected *models.Cart) (*Outcome, error) {
	after := a.adoptCorrection(before, corrected)
	util.CartAdjustmentsTotal.Inc()

	res := a.engine.carts.UpdateCart(ctx, after)
	a.publishAdjustment(context.WithoutCancel(ctx), before, after)
	if !a.flow.Alive() {
		return nil, ErrFlowAbandoned
	}

	if res.OK() {
		a.sink.Info(msgCartAdjusted)
		if detail := a.describeAdjustment(before, after); detail != "" {
			a.sink.Info(detail)
		}
	} else {
		a.logger.Error("Failed to persist corrected cart", zap.Error(res.Err))
		a.sink.Error(msgCartAdjustFailed)
	}

	return &Outcome{
		State:   StateAwaitingCorrection,
		Failure: FailureStockConflict,
		Err:     res.Err,
		Cart:    after,
	}, nil
}

// adoptCorrection takes the server's corrected cart as the new local truth. Only
// non-positive quantities are dropped.
func (a *attempt) adoptCorrection(before, corrected *models.Cart) *models.Cart {
	after := models.NewCart(a.accountID)
	for id, qty := range corrected.Items {
		if qty <= 0 {
			continue
		}
		if _, ok := before.Items[id]; !ok {
			a.logger.Info("Corrected cart holds an item this page had not seen", zap.Int64("product_id", id))
		}
		after.Items[id] = qty
	}
	return after
}

func (a *attempt) describeAdjustment(before, after *models.Cart) string {
	names := a.catalogNames()
	ids := lo.Keys(before.Items)
	slices.Sort(ids)

	var changes []string
	for _, id := range ids {
		was := before.Items[id]
		now, kept := after.Items[id]
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("duck %d", id)
		}
		switch {
		case !kept:
			changes = append(changes, fmt.Sprintf("%s was removed", name))
		case now != was:
			changes = append(changes, fmt.Sprintf("%s reduced from %d to %d", name, was, now))
		}
	}
	if len(changes) == 0 {
		return ""
	}
	return "Changes: " + strings.Join(changes, "; ") + "."
}

func (a *attempt) catalogNames() map[int64]string {
	return lo.MapValues(lo.KeyBy(a.data.Catalog, func(d models.Duck) int64 { return d.ID }),
		func(d models.Duck, _ int64) string { return d.Name })
}

// settle captures payment, commits the catalog leg and cleans up custom ducks.
// A validated cart is always committed: the server only validates a cart with items,
// whatever this page's copy says.
func (a *attempt) settle(ctx context.Context, cart *models.Cart, commit bool) (*Outcome, error) {
	a.logger.Debug("Checkout state", zap.String("state", string(StateSettling)))
	receipt := a.buildReceipt(cart)

	ref, err := a.engine.payments.Capture(ctx, a.accountID, a.card, receipt.Total)
	if err != nil {
		a.logger.Warn("Payment capture failed", zap.Error(err))
		if !a.flow.Alive() {
			return nil, ErrFlowAbandoned
		}
		a.sink.Error(msgPaymentFailed)
		return a.abort(err), nil
	}
	receipt.PaymentRef = ref

	if commit {
		if cart.IsEmpty() {
			a.logger.Warn("Committing a validated cart this page saw as empty")
		}
		res := a.engine.carts.CheckoutCart(ctx, a.accountID)
		if !res.OK() {
			a.void(ctx, ref)
			a.logger.Warn("Cart checkout rejected", zap.Int("status", res.Status), zap.Error(res.Err))
			if !a.flow.Alive() {
				return nil, ErrFlowAbandoned
			}
			a.sink.Error(checkoutFailureMessage(res.Err))
			return a.abort(res.Err), nil
		}
	}

	// The purchase is committed; what follows runs even if the buyer has left.
	ctx = context.WithoutCancel(ctx)
	failed := a.cleanup(ctx)
	return a.finish(ctx, receipt, failed)
}

func checkoutFailureMessage(err error) string {
	switch {
	case errors.Is(err, gateway.ErrStockConflict):
		return msgItemsUnavailable
	case errors.Is(err, gateway.ErrEmptyCart), errors.Is(err, gateway.ErrNotFound):
		return msgNothingToPurchase
	default:
		return msgGenericFailure
	}
}

func (a *attempt) void(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := a.engine.payments.Void(context.WithoutCancel(ctx), ref); err != nil {
		a.logger.Error("Failed to void payment", zap.String("tx_id", ref), zap.Error(err))
	}
}

// cleanup deletes every pending custom duck and returns how many deletions failed
func (a *attempt) cleanup(ctx context.Context) int {
	ducks := a.data.CustomDucks
	if len(ducks) == 0 {
		return 0
	}
	a.logger.Debug("Checkout state", zap.String("state", string(StateCleaningUp)))

	results := make([]gateway.Result, len(ducks))
	g := new(errgroup.Group)
	g.SetLimit(a.engine.parallelism)
	for i, duck := range ducks {
		i, duck := i, duck
		g.Go(func() error {
			results[i] = a.engine.customs.DeleteCustomDuck(ctx, a.accountID, duck.ID)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, res := range results {
		if !res.OK() {
			failed++
			a.logger.Warn("Failed to delete custom duck",
				zap.Int64("custom_duck_id", ducks[i].ID),
				zap.Error(res.Err))
		}
	}
	util.CustomDuckCleanupFailedTotal.Add(float64(failed))
	return failed
}

func (a *attempt) finish(ctx context.Context, receipt *models.Receipt, failed int) (*Outcome, error) {
	if !receipt.IsEmpty() {
		a.publishReceipt(ctx, receipt)
	}
	if !a.flow.Alive() {
		return nil, ErrFlowAbandoned
	}

	if failed > 0 {
		a.sink.Warning(fmt.Sprintf(msgCustomCleanupFailed, failed, len(a.data.CustomDucks)))
	}
	a.sink.Success(msgPurchaseComplete)

	return &Outcome{
		State:         StateReceiptReady,
		Cart:          receipt.Cart,
		Receipt:       receipt,
		CleanupFailed: failed,
	}, nil
}

// buildReceipt prices the cart from the catalog snapshot
func (a *attempt) buildReceipt(cart *models.Cart) *models.Receipt {
	catalog := lo.KeyBy(a.data.Catalog, func(d models.Duck) int64 { return d.ID })
	ids := lo.Keys(cart.Items)
	slices.Sort(ids)

	lines := lo.Map(ids, func(id int64, _ int) models.ReceiptLine {
		duck := catalog[id]
		qty := cart.Items[id]
		return models.ReceiptLine{
			ProductID: id,
			Name:      duck.Name,
			Quantity:  qty,
			UnitPrice: duck.Price,
			Subtotal:  duck.Price.Mul(decimal.NewFromInt(int64(qty))),
		}
	})

	total := lo.Reduce(lines, func(sum decimal.Decimal, l models.ReceiptLine, _ int) decimal.Decimal {
		return sum.Add(l.Subtotal)
	}, decimal.Zero)
	total = lo.Reduce(a.data.CustomDucks, func(sum decimal.Decimal, d models.CustomDuck, _ int) decimal.Decimal {
		return sum.Add(d.Price)
	}, total)

	return &models.Receipt{
		ID:          uuid.New(),
		AccountID:   a.accountID,
		Cart:        cart.Clone(),
		Lines:       lines,
		CustomDucks: slices.Clone(a.data.CustomDucks),
		Total:       total,
		IssuedAt:    time.Now().UTC(),
	}
}

func (a *attempt) publishReceipt(ctx context.Context, receipt *models.Receipt) {
	event := &models.ReceiptIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReceiptIssued,
			Timestamp: time.Now(),
		},
		Receipt: *receipt,
	}
	if err := a.engine.publisher.PublishReceiptIssued(ctx, event); err != nil {
		a.logger.Error("Failed to publish ReceiptIssued event", zap.Error(err))
	}
}

func (a *attempt) publishAdjustment(ctx context.Context, before, after *models.Cart) {
	event := &models.CartAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartAdjusted,
			Timestamp: time.Now(),
		},
		AccountID: a.accountID,
		Before:    before.Clone().Items,
		After:     after.Clone().Items,
	}
	if err := a.engine.publisher.PublishCartAdjusted(ctx, event); err != nil {
		a.logger.Error("Failed to publish CartAdjusted event", zap.Error(err))
	}
}
