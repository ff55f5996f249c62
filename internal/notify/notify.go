// Package notify delivers order confirmations after checkout commits.
// Delivery is best-effort: failures are logged and never retried.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Item is one purchased line as shown to the buyer.
type Item struct {
	Title     string          `json:"title"`
	Artist    string          `json:"artist"`
	CoverURL  string          `json:"cover_url"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal is unit price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Confirmation is everything a notifier needs about a committed order.
type Confirmation struct {
	OrderID    int64           `json:"order_id"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	Billing    models.Billing  `json:"billing"`
	BuyerName  string          `json:"buyer_name"`
	BuyerEmail string          `json:"buyer_email"`
	Items      []Item          `json:"items"`
}

// NewConfirmation builds the notification payload from a committed order.
func NewConfirmation(order models.Order, buyer models.User) Confirmation {
	items := make([]Item, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, Item{
			Title:     it.Title,
			Artist:    it.Artist,
			CoverURL:  it.CoverURL,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	return Confirmation{
		OrderID:    order.ID,
		Total:      order.Total,
		CreatedAt:  order.CreatedAt,
		Billing:    order.Billing,
		BuyerName:  buyer.Name,
		BuyerEmail: buyer.Email,
		Items:      items,
	}
}

// OrderNumber formats the id the way customers see it, e.g. #000042.
func (c Confirmation) OrderNumber() string {
	return fmt.Sprintf("#%06d", c.OrderID)
}

// Notifier delivers one confirmation.
type Notifier interface {
	OrderConfirmed(ctx context.Context, c Confirmation) error
}

// Multi fans a confirmation out to every notifier and combines the errors.
type Multi []Notifier

func (m Multi) OrderConfirmed(ctx context.Context, c Confirmation) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.OrderConfirmed(ctx, c))
	}
	return err
}

// LogNotifier stands in for email when no provider is configured.
type LogNotifier struct{}

func (LogNotifier) OrderConfirmed(_ context.Context, c Confirmation) error {
	logger.Log.Infow("[DEV] Email would be sent", "to", c.BuyerEmail, "order", c.OrderNumber(),
		"total", c.Total.StringFixed(2), "items", len(c.Items))
	return nil
}

// Dispatcher runs each confirmation on its own goroutine so the caller
// never waits on, or sees the failure of, a notifier.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher wraps n; each delivery gets at most timeout to finish.
func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, log: logger.Named("notify")}
}

// Dispatch schedules delivery and returns immediately. The request context
// only contributes its values; its cancellation does not reach the notifier.
// Confirmations dispatched after Close are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, c Confirmation) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warnw("Dispatcher closed, confirmation dropped", "order_id", c.OrderID)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Errorw("Notifier panicked", "order_id", c.OrderID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.notifier.OrderConfirmed(ctx, c); err != nil {
			d.log.Warnw("Order confirmation failed", "order_id", c.OrderID, "to", c.BuyerEmail, "error", err)
			return
		}
		d.log.Debugw("Order confirmation delivered", "order_id", c.OrderID)
	}()
}

// Wait blocks until every dispatched delivery has finished. Callers that may
// still dispatch concurrently use Close instead.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting confirmations and drains the ones in flight.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
