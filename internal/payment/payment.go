// Package payment wraps the external payment gateway. Exactly one Gateway is
// built at startup: Stripe when a secret key is configured, Disabled
// otherwise.
package payment

import (
	"context"
	"errors"
)

// ErrDisabled is returned by Disabled for operations that need a gateway.
var ErrDisabled = errors.New("payment gateway not configured")

// Intent is the client-usable handle of an opened payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
}

// Gateway opens and verifies payment intents.
type Gateway interface {
	Enabled() bool
	PublishableKey() string
	CreateIntent(ctx context.Context, amountCents int64, userID int64) (Intent, error)
	Succeeded(ctx context.Context, intentID string) (bool, error)
}

// Disabled is the stand-in used when no gateway is configured.
type Disabled struct{}

func (Disabled) Enabled() bool          { return false }
func (Disabled) PublishableKey() string { return "" }

func (Disabled) CreateIntent(context.Context, int64, int64) (Intent, error) {
	return Intent{}, ErrDisabled
}

func (Disabled) Succeeded(context.Context, string) (bool, error) {
	return false, ErrDisabled
}
