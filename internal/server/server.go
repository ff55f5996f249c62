// Package server exposes the store over HTTP with echo, plus a WebSocket
// catalog feed.
package server

import (
	"net/http"
	"time"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"
	"example/waxroom/internal/service"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Services are the business components the handlers call into.
type Services struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
}

// Options tune the HTTP surface.
type Options struct {
	// EmailEnabled is reported by the health endpoint.
	EmailEnabled bool
	// Metrics, when set, records request counters and serves /metrics.
	Metrics *metrics.Metrics
	// AuthRate and AuthBurst limit register/login per client address.
	AuthRate  rate.Limit
	AuthBurst int
}

type Server struct {
	echo *echo.Echo
	svc  Services
	opts Options
}

// New builds the router with every route registered.
func New(svc Services, opts Options) *Server {
	if opts.AuthRate == 0 {
		opts.AuthRate = rate.Limit(1)
	}
	if opts.AuthBurst == 0 {
		opts.AuthBurst = 10
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, opts: opts}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger.Named("http")))
	if opts.Metrics != nil {
		e.Use(requestMetrics(opts.Metrics))
	}
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	requireAuth := echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: s.parseToken,
		ContextKey:     userKey,
		ErrorHandler:   tokenError,
	})
	limitAuth := middleware.RateLimiterWithConfig(authLimiter(s.opts.AuthRate, s.opts.AuthBurst))

	api := e.Group("/api")

	api.POST("/auth/register", s.register, limitAuth)
	api.POST("/auth/login", s.login, limitAuth)
	api.GET("/auth/me", s.me, requireAuth)
	api.PUT("/auth/me", s.updateMe, requireAuth)

	api.GET("/albums", s.listAlbums)
	api.GET("/albums/:id", s.getAlbum)
	api.GET("/genres", s.listGenres)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", s.listCart)
	cart.POST("", s.addToCart)
	cart.PUT("/:albumId", s.setCartQuantity)
	cart.DELETE("/:albumId", s.removeFromCart)
	cart.DELETE("", s.clearCart)

	saved := api.Group("/saved", requireAuth)
	saved.GET("", s.listSaved)
	saved.POST("/:albumId", s.saveAlbum)
	saved.DELETE("/:albumId", s.unsaveAlbum)
	saved.POST("/:albumId/toggle", s.toggleSaved)

	api.POST("/payments/create-intent", s.createPaymentIntent, requireAuth)
	api.GET("/payments/config", s.paymentsConfig)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", s.checkout)
	orders.GET("", s.listOrders)
	orders.GET("/:id", s.getOrder)

	api.GET("/health", s.health)
	api.GET("/ws", s.catalogFeed)

	if s.opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}
}

// Handler returns the router wrapped with OpenTelemetry HTTP instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.echo, "waxroom",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }))
}

// HTTPServer returns a net/http server for addr serving Handler.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
