package service

import (
	"context"
	"errors"
	"fmt"

	"example/waxroom/internal/lock"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"
	"example/waxroom/internal/models"
	"example/waxroom/internal/notify"
	"example/waxroom/internal/payment"
	"example/waxroom/internal/repository"
	"example/waxroom/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("service")

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	Billing         *models.Billing `json:"billing"`
}

// PaymentIntent is returned to the client to confirm a card payment.
type PaymentIntent struct {
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
}

// CheckoutService turns carts into orders and serves order history.
type CheckoutService struct {
	repo       *repository.Repository
	gateway    payment.Gateway
	guard      lock.Guard
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
}

// NewCheckoutService wires the checkout dependencies. A nil guard means
// no double-submit protection; nil metrics disables counting.
func NewCheckoutService(repo *repository.Repository, gateway payment.Gateway, guard lock.Guard,
	dispatcher *notify.Dispatcher, m *metrics.Metrics) *CheckoutService {
	if gateway == nil {
		gateway = payment.Disabled{}
	}
	if guard == nil {
		guard = lock.Noop{}
	}
	return &CheckoutService{repo: repo, gateway: gateway, guard: guard, dispatcher: dispatcher, metrics: m}
}

// Checkout converts the caller's cart into a completed order. When a payment
// reference is supplied and a gateway is configured, the intent must have
// succeeded before any write happens. The confirmation is sent after commit
// and never affects the result.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (order models.Order, err error) {
	ctx, span := tracer.Start(ctx, "Checkout")
	span.SetAttributes(attribute.Int64("user.id", userID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock, err := s.guard.Lock(ctx, userID)
	if errors.Is(err, lock.ErrHeld) {
		s.metrics.CheckoutOutcome(metrics.CheckoutInProgress)
		return models.Order{}, ErrCheckoutInProgress
	}
	if err != nil {
		s.metrics.CheckoutOutcome(metrics.CheckoutFailed)
		return models.Order{}, fmt.Errorf("acquire checkout lock: %w", err)
	}
	defer unlock()

	if req.PaymentIntentID != "" && s.gateway.Enabled() {
		ok, err := s.gateway.Succeeded(ctx, req.PaymentIntentID)
		if err != nil {
			s.metrics.CheckoutOutcome(metrics.CheckoutFailed)
			return models.Order{}, fmt.Errorf("verify payment: %w", err)
		}
		if !ok {
			logger.Log.Infow("Checkout rejected, payment not confirmed",
				"user_id", userID, "payment_intent_id", req.PaymentIntentID)
			s.metrics.CheckoutOutcome(metrics.CheckoutPaymentNotConfirmed)
			return models.Order{}, ErrPaymentNotConfirmed
		}
	}

	var billing models.Billing
	if req.Billing != nil {
		billing = *req.Billing
	}

	order, err = s.repo.CreateOrderFromCart(ctx, userID, req.PaymentIntentID, billing)
	if errors.Is(err, repository.ErrEmptyCart) {
		s.metrics.CheckoutOutcome(metrics.CheckoutEmptyCart)
		return models.Order{}, ErrEmptyCart
	}
	if err != nil {
		s.metrics.CheckoutOutcome(metrics.CheckoutFailed)
		return models.Order{}, err
	}
	s.metrics.CheckoutOutcome(metrics.CheckoutCompleted)
	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.total", order.Total.StringFixed(2)))

	s.confirm(ctx, order)
	return order, nil
}

func (s *CheckoutService) confirm(ctx context.Context, order models.Order) {
	if s.dispatcher == nil {
		return
	}
	buyer, err := s.repo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logger.Log.Warnw("Skipping order confirmation, buyer lookup failed",
			"order_id", order.ID, "user_id", order.UserID, "error", err)
		return
	}
	s.dispatcher.Dispatch(ctx, notify.NewConfirmation(order, buyer))
}

// CreatePaymentIntent prices the caller's cart and opens a card payment for
// it. The amount in the response is in dollars.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID int64) (PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "CreatePaymentIntent")
	defer span.End()

	if !s.gateway.Enabled() {
		return PaymentIntent{}, ErrPaymentsDisabled
	}
	lines, err := s.repo.ListCart(ctx, userID)
	if err != nil {
		return PaymentIntent{}, err
	}
	if len(lines) == 0 {
		return PaymentIntent{}, ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	cents := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	intent, err := s.gateway.CreateIntent(ctx, cents, userID)
	if err != nil {
		span.RecordError(err)
		logger.Log.Errorw("Payment intent creation failed", "user_id", userID, "amount_cents", cents, "error", err)
		return PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	logger.Log.Infow("Payment intent created", "user_id", userID, "intent_id", intent.ID, "amount_cents", cents)
	return PaymentIntent{ClientSecret: intent.ClientSecret, Amount: total}, nil
}

// PaymentsEnabled reports whether a gateway is configured.
func (s *CheckoutService) PaymentsEnabled() bool { return s.gateway.Enabled() }

// PublishableKey is the client-side gateway key, empty when disabled.
func (s *CheckoutService) PublishableKey() string { return s.gateway.PublishableKey() }

func (s *CheckoutService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.repo.ListOrders(ctx, userID)
}

func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID int64) (models.Order, error) {
	order, err := s.repo.GetOrder(ctx, userID, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	return order, err
}
