package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example/waxroom/internal/auth"
	"example/waxroom/internal/database/dbtest"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"
	"example/waxroom/internal/notify"
	"example/waxroom/internal/payment"
	"example/waxroom/internal/repository"
	"example/waxroom/internal/server"
	"example/waxroom/internal/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	logger.InitLoggerDev()
}

type testServer struct {
	*httptest.Server
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, opts ...func(*server.Options)) *testServer {
	t.Helper()

	repo := repository.New(dbtest.Seeded(t))
	dispatcher := notify.NewDispatcher(notify.LogNotifier{}, time.Second)
	m := metrics.New()

	o := server.Options{Metrics: m, AuthRate: rate.Inf, AuthBurst: 1}
	for _, fn := range opts {
		fn(&o)
	}

	srv := server.New(server.Services{
		Auth:     service.NewAuthService(repo, auth.NewTokens("test-secret")),
		Catalog:  service.NewCatalogService(repo),
		Cart:     service.NewCartService(repo),
		Checkout: service.NewCheckoutService(repo, payment.Disabled{}, nil, dispatcher, m),
	}, o)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		dispatcher.Close()
	})
	return &testServer{Server: ts, metrics: m}
}

// do sends a JSON request and decodes the JSON response into out when
// out is non-nil. It returns the status code.
func (ts *testServer) do(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func (ts *testServer) register(t *testing.T, name, email, password string) sessionResponse {
	t.Helper()
	var s sessionResponse
	status := ts.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": name, "email": email, "password": password}, &s)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, s.Token)
	return s
}
