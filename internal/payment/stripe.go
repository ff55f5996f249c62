package payment

import (
	"context"
	"fmt"
	"strconv"

	"example/waxroom/internal/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Stripe talks to the Stripe PaymentIntents API.
type Stripe struct {
	api            *client.API
	publishableKey string
	currency       string
}

// NewStripe builds a gateway from the secret and publishable keys.
func NewStripe(secretKey, publishableKey string) *Stripe {
	return newStripe(secretKey, publishableKey, nil)
}

// newStripe accepts explicit backends so tests can point the client at a
// local server. nil selects the public Stripe endpoints.
func newStripe(secretKey, publishableKey string, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Stripe{api: api, publishableKey: publishableKey, currency: string(stripe.CurrencyUSD)}
}

func (s *Stripe) Enabled() bool          { return true }
func (s *Stripe) PublishableKey() string { return s.publishableKey }

// CreateIntent opens a USD payment intent with automatic payment methods.
func (s *Stripe) CreateIntent(ctx context.Context, amountCents int64, userID int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		logger.Log.Errorw("Stripe payment intent creation failed", "user_id", userID, "amount_cents", amountCents, "error", err)
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	logger.Log.Infow("Payment intent created", "intent_id", pi.ID, "user_id", userID, "amount_cents", amountCents)
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, AmountCents: pi.Amount}, nil
}

// Succeeded reports whether the intent has reached the succeeded status.
func (s *Stripe) Succeeded(ctx context.Context, intentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		logger.Log.Errorw("Stripe payment intent lookup failed", "intent_id", intentID, "error", err)
		return false, fmt.Errorf("retrieve payment intent %s: %w", intentID, err)
	}
	logger.Log.Debugw("Payment intent retrieved", "intent_id", intentID, "status", pi.Status)
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}
