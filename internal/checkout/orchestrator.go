package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/pricing"
	"github.com/fjod/go_market/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cart is the part of the cart store checkout needs.
type Cart interface {
	Items() []domain.CartItem
	ClearCart(ctx context.Context) error
}

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, idempotencyKey string, order *domain.Order) error
}

type AttemptLedger interface {
	GetAttempt(ctx context.Context, key string) (*repository.Attempt, error)
	SaveAttempt(ctx context.Context, attempt *repository.Attempt) error
}

// Result is what the success step shows.
type Result struct {
	OrderID       string               `json:"order_id"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Order         *domain.Order        `json:"order,omitempty"`
}

// View is a snapshot of the checkout for rendering.
type View struct {
	Step                  domain.CheckoutStep     `json:"step"`
	ShippingAddress       *domain.ShippingAddress `json:"shipping_address,omitempty"`
	Bill                  *domain.Order           `json:"bill,omitempty"`
	PaymentMethod         domain.PaymentMethod    `json:"payment_method,omitempty"`
	BankTransferConfirmed bool                    `json:"bank_transfer_confirmed"`
	Submitting            bool                    `json:"submitting"`
	LastError             string                  `json:"last_error,omitempty"`
	Result                *Result                 `json:"result,omitempty"`
}

// Orchestrator walks one owner through shipping -> summary -> payment -> success.
type Orchestrator struct {
	owner  string
	cart   Cart
	orders OrderSubmitter
	ledger AttemptLedger
	bill   pricing.BillOptions
	logger *zap.Logger

	mu                    sync.Mutex
	step                  domain.CheckoutStep
	address               *domain.ShippingAddress
	preview               *domain.Order
	method                domain.PaymentMethod
	bankTransferConfirmed bool
	idempotencyKey        string
	inFlight              bool
	lastErr               string
	result                *Result
}

func NewOrchestrator(owner string, cart Cart, orders OrderSubmitter, ledger AttemptLedger, bill pricing.BillOptions, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		owner:  owner,
		cart:   cart,
		orders: orders,
		ledger: ledger,
		bill:   bill,
		logger: logger.With(zap.String("owner", owner)),
		step:   domain.CheckoutStepShipping,
	}
}

func (o *Orchestrator) Step() domain.CheckoutStep {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		Step:                  o.step,
		Bill:                  o.preview,
		PaymentMethod:         o.method,
		BankTransferConfirmed: o.bankTransferConfirmed,
		Submitting:            o.inFlight,
		LastError:             o.lastErr,
		Result:                o.result,
	}
	if o.address != nil {
		addr := *o.address
		v.ShippingAddress = &addr
	}
	return v
}

// SubmitShipping stores the address and moves to summary.
func (o *Orchestrator) SubmitShipping(addr domain.ShippingAddress) error {
	addr = normalizeAddress(addr)
	if err := validateAddress(addr); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	// payment -> summary is legal for Back, so pin the source step here
	if o.step != domain.CheckoutStepShipping {
		return illegalTransition(o.step, domain.CheckoutStepSummary)
	}
	if err := o.transition(domain.CheckoutStepSummary); err != nil {
		return err
	}
	o.address = &addr
	return nil
}

// ConfirmSummary prices the current cart and moves to payment with a fresh idempotency key.
func (o *Orchestrator) ConfirmSummary() (*domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !domain.CanTransitionTo(o.step, domain.CheckoutStepPayment) {
		return nil, illegalTransition(o.step, domain.CheckoutStepPayment)
	}

	items := o.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	order, err := pricing.BuildOrder(items, o.bill)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPricing, err)
	}
	order.ShippingAddress = o.address

	o.step = domain.CheckoutStepPayment
	o.preview = order
	o.idempotencyKey = uuid.NewString()
	o.lastErr = ""
	return order, nil
}

// SelectPaymentMethod picks the method on the payment step. Changing the method drops a
// previous bank transfer confirmation.
func (o *Orchestrator) SelectPaymentMethod(m domain.PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != domain.CheckoutStepPayment {
		return fmt.Errorf("%w: payment method can only be chosen on %s, not %s",
			ErrIllegalTransition, domain.CheckoutStepPayment, o.step)
	}
	if o.inFlight {
		return ErrSubmissionInFlight
	}
	if m != o.method {
		o.bankTransferConfirmed = false
	}
	o.method = m
	return nil
}

// ConfirmBankTransfer records that the customer says the transfer was made.
func (o *Orchestrator) ConfirmBankTransfer() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != domain.CheckoutStepPayment || o.method != domain.PaymentMethodBankTransfer {
		return fmt.Errorf("%w: bank transfer confirmation needs %s on the payment step",
			ErrIllegalTransition, domain.PaymentMethodBankTransfer)
	}
	o.bankTransferConfirmed = true
	return nil
}

// PlaceOrder submits the priced order once. On success the cart is cleared and the step is
// success; on failure the step stays payment and the cart is kept for a retry.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	if o.step != domain.CheckoutStepPayment {
		step := o.step
		o.mu.Unlock()
		return nil, illegalTransition(step, domain.CheckoutStepSuccess)
	}
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if o.method == "" {
		o.mu.Unlock()
		return nil, ErrPaymentMethodRequired
	}
	if o.method == domain.PaymentMethodBankTransfer && !o.bankTransferConfirmed {
		o.mu.Unlock()
		return nil, ErrBankTransferUnconfirmed
	}
	o.inFlight = true
	key := o.idempotencyKey
	order := *o.preview
	order.PaymentMethod = o.method
	order.PaymentStatus = domain.PaymentStatusFor(o.method)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	log := o.logger.With(zap.String("idempotency_key", key), zap.String("payment_method", string(order.PaymentMethod)))

	prev, err := o.ledger.GetAttempt(ctx, key)
	switch {
	case err == nil && prev.Status == repository.AttemptSucceeded:
		log.Info("order already placed, reusing result", zap.String("order_id", prev.OrderID))
		order.ID = prev.OrderID
		order.PaymentMethod = prev.PaymentMethod
		order.PaymentStatus = prev.PaymentStatus
		return o.complete(ctx, &order, log), nil
	case err != nil && !errors.Is(err, repository.ErrAttemptNotFound):
		return nil, o.fail(fmt.Errorf("read checkout attempt: %w", err))
	}

	order.ID = uuid.NewString()
	order.CreatedAt = time.Now().UTC()

	attempt := &repository.Attempt{
		Key:           key,
		Owner:         o.owner,
		Status:        repository.AttemptPending,
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		BillAmount:    order.BillAmount,
	}
	if err := o.ledger.SaveAttempt(ctx, attempt); err != nil {
		return nil, o.fail(fmt.Errorf("record checkout attempt: %w", err))
	}

	if err := o.orders.SubmitOrder(ctx, key, &order); err != nil {
		attempt.Status = repository.AttemptFailed
		attempt.Error = err.Error()
		if errSave := o.ledger.SaveAttempt(ctx, attempt); errSave != nil {
			log.Warn("could not record failed attempt", zap.Error(errSave))
		}
		log.Warn("order submission failed", zap.Error(err))
		return nil, o.fail(fmt.Errorf("place order: %w", err))
	}

	attempt.Status = repository.AttemptSucceeded
	attempt.Error = ""
	if err := o.ledger.SaveAttempt(ctx, attempt); err != nil {
		log.Warn("could not record placed order", zap.Error(err))
	}
	log.Info("order placed", zap.String("order_id", order.ID), zap.String("bill_amount", order.BillAmount.String()))

	return o.complete(ctx, &order, log), nil
}

func (o *Orchestrator) complete(ctx context.Context, order *domain.Order, log *zap.Logger) *Result {
	if err := o.cart.ClearCart(ctx); err != nil {
		log.Error("order placed but cart not cleared", zap.Error(err))
	}

	res := &Result{
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Order:         order,
	}

	o.mu.Lock()
	o.step = domain.CheckoutStepSuccess
	o.result = res
	o.lastErr = ""
	o.mu.Unlock()
	return res
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.lastErr = err.Error()
	o.mu.Unlock()
	return err
}

// Back returns from summary to shipping or from payment to summary. Entered data is kept.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var to domain.CheckoutStep
	switch o.step {
	case domain.CheckoutStepSummary:
		to = domain.CheckoutStepShipping
	case domain.CheckoutStepPayment:
		if o.inFlight {
			return ErrSubmissionInFlight
		}
		to = domain.CheckoutStepSummary
	default:
		return fmt.Errorf("%w: no step before %s", ErrIllegalTransition, o.step)
	}
	if err := o.transition(to); err != nil {
		return err
	}
	o.bankTransferConfirmed = false
	o.lastErr = ""
	return nil
}

// Cancel abandons the checkout. Nothing is committed and the cart is left as it is.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrSubmissionInFlight
	}
	if err := o.transition(domain.CheckoutStepCancelled); err != nil {
		return err
	}
	o.preview = nil
	o.method = ""
	o.bankTransferConfirmed = false
	o.idempotencyKey = ""
	return nil
}

// transition must be called with mu held.
func (o *Orchestrator) transition(to domain.CheckoutStep) error {
	if !domain.CanTransitionTo(o.step, to) {
		return illegalTransition(o.step, to)
	}
	o.step = to
	return nil
}

func normalizeAddress(a domain.ShippingAddress) domain.ShippingAddress {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Note = strings.TrimSpace(a.Note)
	return a
}

func validateAddress(a domain.ShippingAddress) error {
	var missing []string
	if a.FullName == "" {
		missing = append(missing, "full_name")
	}
	if a.Phone == "" {
		missing = append(missing, "phone")
	}
	if a.Street == "" {
		missing = append(missing, "street")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}
