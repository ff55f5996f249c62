package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userKey = "user_id"

func (s *Server) parseToken(_ echo.Context, token string) (interface{}, error) {
	return s.svc.Auth.Authenticate(token)
}

// tokenError distinguishes a request with no Authorization header from one
// whose token could not be used.
func tokenError(c echo.Context, err error) error {
	if strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) == "" {
		return c.JSON(http.StatusUnauthorized, errorBody("No token"))
	}
	logger.Log.Debugw("Rejected token", "path", c.Path(), "error", err)
	return c.JSON(http.StatusUnauthorized, errorBody("Invalid token"))
}

// userID is only valid behind the auth middleware.
func userID(c echo.Context) int64 {
	id, _ := c.Get(userKey).(int64)
	return id
}

func authLimiter(r rate.Limit, burst int) middleware.RateLimiterConfig {
	deny := func(c echo.Context, _ string, _ error) error {
		return c.JSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
	}
	return middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      r,
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return deny(c, "", err)
		},
		DenyHandler: deny,
	}
}

func requestLogger(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Errorw("Request error", append(fields, "error", v.Error)...)
				return nil
			}
			log.Infow("Request", fields...)
			return nil
		},
	})
}

func requestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.Requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
			return err
		}
	}
}
