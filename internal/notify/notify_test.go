package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"

	"github.com/resend/resend-go/v2"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleConfirmation() Confirmation {
	order := models.Order{
		ID:        42,
		Total:     decimal.RequireFromString("46.97"),
		CreatedAt: time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC),
		Billing: models.Billing{
			Name: "Alice Archer", Address: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		},
		Items: []models.OrderItem{
			{AlbumID: 3, Quantity: 2, Price: decimal.RequireFromString("14.99"), Title: "Solar Drift", Artist: "Cosmo Ray"},
			{AlbumID: 7, Quantity: 1, Price: decimal.RequireFromString("16.99"), Title: "Digital Dreams", Artist: "Cyber Muse"},
		},
	}
	return NewConfirmation(order, models.User{ID: 1, Name: "Alice Archer", Email: "alice@example.com"})
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (r *recordingNotifier) OrderConfirmed(ctx context.Context, _ Confirmation) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func TestNewConfirmation(t *testing.T) {
	c := sampleConfirmation()
	assert.Equal(t, "#000042", c.OrderNumber())
	assert.Equal(t, "alice@example.com", c.BuyerEmail)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "29.98", c.Items[0].Subtotal().StringFixed(2))
}

func TestMultiCombinesErrors(t *testing.T) {
	errA, errB := errors.New("a failed"), errors.New("b failed")
	ok := &recordingNotifier{}
	m := Multi{&recordingNotifier{err: errA}, ok, &recordingNotifier{err: errB}}

	err := m.OrderConfirmed(context.Background(), sampleConfirmation())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, ok.calls, "a failing notifier does not stop the others")
}

func TestDispatcherDoesNotBlockCaller(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(n, time.Second)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), sampleConfirmation())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Dispatch blocked on the notifier")
	}

	close(n.block)
	d.Wait()
	assert.Equal(t, 1, n.calls)
}

func TestDispatcherIgnoresCallerCancellation(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, sampleConfirmation())
	d.Wait()
	assert.Equal(t, 1, n.calls)
}

func TestDispatcherTimesOut(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(n, 20*time.Millisecond)

	d.Dispatch(context.Background(), sampleConfirmation())
	d.Wait()
	assert.Equal(t, 0, n.calls)
}

type panicNotifier struct{}

func (panicNotifier) OrderConfirmed(context.Context, Confirmation) error { panic("boom") }

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewDispatcher(panicNotifier{}, time.Second)
	d.Dispatch(context.Background(), sampleConfirmation())
	d.Wait()
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = prev })

	d := NewDispatcher(&recordingNotifier{err: errors.New("smtp down")}, time.Second)
	d.Dispatch(context.Background(), sampleConfirmation())
	d.Wait()

	entries := logs.FilterMessage("Order confirmation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "notify", entries[0].LoggerName)
	assert.Equal(t, int64(42), entries[0].ContextMap()["order_id"])
}

func TestDispatcherClose(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, time.Second)

	d.Dispatch(context.Background(), sampleConfirmation())
	d.Close()
	assert.Equal(t, 1, n.calls)

	d.Dispatch(context.Background(), sampleConfirmation())
	d.Close()
	assert.Equal(t, 1, n.calls, "confirmations after Close are dropped")
}

func TestDispatcherCloseWhileDispatching(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Dispatch(context.Background(), sampleConfirmation())
			}
		}()
	}
	d.Close()
	wg.Wait()
	d.Close()
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.OrderConfirmed(context.Background(), sampleConfirmation()))
}

type fakeSender struct {
	req   *resend.SendEmailRequest
	err   error
	delay time.Duration
}

func (f *fakeSender) SendWithContext(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.req = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email_1"}, nil
}

func TestEmailNotifier(t *testing.T) {
	s := &fakeSender{}
	e := &EmailNotifier{sender: s, from: "orders@waxroom.store"}

	require.NoError(t, e.OrderConfirmed(context.Background(), sampleConfirmation()))
	require.NotNil(t, s.req)
	assert.Equal(t, "orders@waxroom.store", s.req.From)
	assert.Equal(t, []string{"alice@example.com"}, s.req.To)
	assert.Equal(t, "Order Confirmed — #000042 | WAXROOM", s.req.Subject)
	assert.Contains(t, s.req.Html, "Solar Drift")

	s.err = errors.New("rejected")
	assert.Error(t, e.OrderConfirmed(context.Background(), sampleConfirmation()))
}

func TestEmailNotifierHonorsDispatchTimeout(t *testing.T) {
	s := &fakeSender{delay: 5 * time.Second}
	d := NewDispatcher(&EmailNotifier{sender: s, from: "orders@waxroom.store"}, 50*time.Millisecond)

	start := time.Now()
	d.Dispatch(context.Background(), sampleConfirmation())
	d.Wait()

	assert.Less(t, time.Since(start), time.Second, "a stalled provider is cut off by the timeout")
	require.NotNil(t, s.req)
}

func TestRenderConfirmation(t *testing.T) {
	html, err := RenderConfirmation(sampleConfirmation())
	require.NoError(t, err)

	for _, want := range []string{"Thanks, Alice!", "#000042", "March 4, 2026", "$29.98", "$16.99", "$46.97", "1 Main St", "Austin"} {
		assert.Contains(t, html, want)
	}

	c := sampleConfirmation()
	c.Billing = models.Billing{}
	c.Items[0].Title = "<script>alert(1)</script>"
	html, err = RenderConfirmation(c)
	require.NoError(t, err)
	assert.NotContains(t, html, "1 Main St")
	assert.False(t, strings.Contains(html, "<script>alert"), "titles are escaped")
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaNotifier{writer: w, topic: "waxroom.orders"}

	require.NoError(t, k.OrderConfirmed(context.Background(), sampleConfirmation()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-confirmed-42", string(w.msgs[0].Key))

	var evt OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &evt))
	assert.Equal(t, EventOrderConfirmed, evt.Type)
	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, int64(42), evt.Order.OrderID)
	assert.True(t, evt.Order.Total.Equal(decimal.RequireFromString("46.97")))

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaNotifierParsesBrokers(t *testing.T) {
	k := NewKafkaNotifier(" broker-1:9092, ,broker-2:9092", "topic")
	w, ok := k.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "topic", w.Topic)
	assert.Equal(t, "broker-1:9092,broker-2:9092", w.Addr.String())
}
