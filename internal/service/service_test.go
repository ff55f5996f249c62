package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"example/waxroom/internal/auth"
	"example/waxroom/internal/database/dbtest"
	"example/waxroom/internal/lock"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"
	"example/waxroom/internal/notify"
	"example/waxroom/internal/payment"
	"example/waxroom/internal/repository"
	"example/waxroom/internal/service"

	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLoggerDev()
}

type fakeGateway struct {
	mu        sync.Mutex
	succeeded map[string]bool
	err       error
	created   []int64
}

func (g *fakeGateway) Enabled() bool          { return true }
func (g *fakeGateway) PublishableKey() string { return "pk_test_123" }

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents, _ int64) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return payment.Intent{}, g.err
	}
	g.created = append(g.created, amountCents)
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", AmountCents: amountCents}, nil
}

func (g *fakeGateway) Succeeded(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.succeeded[id], nil
}

type captureNotifier struct {
	mu  sync.Mutex
	got []notify.Confirmation
	err error
}

func (n *captureNotifier) OrderConfirmed(_ context.Context, c notify.Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, c)
	return n.err
}

func (n *captureNotifier) confirmations() []notify.Confirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Confirmation(nil), n.got...)
}

type fixture struct {
	repo       *repository.Repository
	auth       *service.AuthService
	catalog    *service.CatalogService
	cart       *service.CartService
	checkout   *service.CheckoutService
	gateway    *fakeGateway
	notifier   *captureNotifier
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
}

type option func(*fixtureConfig)

type fixtureConfig struct {
	gateway payment.Gateway
	guard   lock.Guard
}

func withGateway(g payment.Gateway) option { return func(c *fixtureConfig) { c.gateway = g } }
func withGuard(g lock.Guard) option        { return func(c *fixtureConfig) { c.guard = g } }

func setup(t *testing.T, opts ...option) *fixture {
	t.Helper()

	cfg := fixtureConfig{gateway: payment.Disabled{}}
	for _, o := range opts {
		o(&cfg)
	}

	repo := repository.New(dbtest.Seeded(t))
	n := &captureNotifier{}
	d := notify.NewDispatcher(n, time.Second)
	m := metrics.New()
	f := &fixture{
		repo:       repo,
		auth:       service.NewAuthService(repo, auth.NewTokens("test-secret")),
		catalog:    service.NewCatalogService(repo),
		cart:       service.NewCartService(repo),
		checkout:   service.NewCheckoutService(repo, cfg.gateway, cfg.guard, d, m),
		notifier:   n,
		dispatcher: d,
		metrics:    m,
	}
	if g, ok := cfg.gateway.(*fakeGateway); ok {
		f.gateway = g
	}
	t.Cleanup(d.Wait)
	return f
}

func (f *fixture) register(t *testing.T, name, email string) service.Session {
	t.Helper()
	s, err := f.auth.Register(context.Background(), name, email, "s3cret-pass")
	require.NoError(t, err)
	return s
}

var errGateway = errors.New("gateway unavailable")
