package server

import (
	"errors"
	"net/http"
	"strconv"

	"example/waxroom/internal/models"
	"example/waxroom/internal/service"

	"github.com/labstack/echo/v4"
)

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorBody("Invalid request payload"))
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// register --> POST /api/auth/register
func (s *Server) register(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	session, err := s.svc.Auth.Register(c.Request().Context(), body.Name, body.Email, body.Password)
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, session)
}

// login --> POST /api/auth/login
func (s *Server) login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	session, err := s.svc.Auth.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, session)
}

// me --> GET /api/auth/me
func (s *Server) me(c echo.Context) error {
	user, err := s.svc.Auth.Me(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, user)
}

// updateMe --> PUT /api/auth/me
func (s *Server) updateMe(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	user, err := s.svc.Auth.UpdateProfile(c.Request().Context(), userID(c), body.Name, body.Email)
	if errors.Is(err, service.ErrDuplicateEmail) {
		return c.JSON(http.StatusBadRequest, errorBody("Email already in use"))
	}
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, user)
}

// listAlbums --> GET /api/albums?genre=&search=&sort=&featured=&new_release=
func (s *Server) listAlbums(c echo.Context) error {
	f := models.AlbumFilter{
		Genre:      c.QueryParam("genre"),
		Search:     c.QueryParam("search"),
		Sort:       c.QueryParam("sort"),
		Featured:   c.QueryParam("featured") == "true",
		NewRelease: c.QueryParam("new_release") == "true",
	}
	albums, err := s.svc.Catalog.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, albums)
}

// getAlbum --> GET /api/albums/:id
func (s *Server) getAlbum(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("Not found"))
	}
	alb, err := s.svc.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, alb)
}

// listGenres --> GET /api/genres
func (s *Server) listGenres(c echo.Context) error {
	genres, err := s.svc.Catalog.Genres(c.Request().Context())
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, genres)
}

// listCart --> GET /api/cart
func (s *Server) listCart(c echo.Context) error {
	lines, err := s.svc.Cart.List(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, lines)
}

// addToCart --> POST /api/cart {album_id, quantity?}
func (s *Server) addToCart(c echo.Context) error {
	var body struct {
		AlbumID  int64 `json:"album_id"`
		Quantity *int  `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}
	if err := s.svc.Cart.Add(c.Request().Context(), userID(c), body.AlbumID, qty); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// setCartQuantity --> PUT /api/cart/:albumId {quantity}
func (s *Server) setCartQuantity(c echo.Context) error {
	albumID, ok := paramID(c, "albumId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid album id"))
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return invalidPayload(c)
	}
	if body.Quantity == nil {
		return c.JSON(http.StatusBadRequest, errorBody("quantity is required"))
	}
	if err := s.svc.Cart.SetQuantity(c.Request().Context(), userID(c), albumID, *body.Quantity); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// removeFromCart --> DELETE /api/cart/:albumId
func (s *Server) removeFromCart(c echo.Context) error {
	albumID, ok := paramID(c, "albumId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid album id"))
	}
	if err := s.svc.Cart.Remove(c.Request().Context(), userID(c), albumID); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// clearCart --> DELETE /api/cart
func (s *Server) clearCart(c echo.Context) error {
	if err := s.svc.Cart.Clear(c.Request().Context(), userID(c)); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// listSaved --> GET /api/saved
func (s *Server) listSaved(c echo.Context) error {
	saved, err := s.svc.Cart.ListSaved(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, saved)
}

// saveAlbum --> POST /api/saved/:albumId
func (s *Server) saveAlbum(c echo.Context) error {
	albumID, ok := paramID(c, "albumId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid album id"))
	}
	if err := s.svc.Cart.Save(c.Request().Context(), userID(c), albumID); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// unsaveAlbum --> DELETE /api/saved/:albumId
func (s *Server) unsaveAlbum(c echo.Context) error {
	albumID, ok := paramID(c, "albumId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid album id"))
	}
	if err := s.svc.Cart.Unsave(c.Request().Context(), userID(c), albumID); err != nil {
		return fail(c, err, serverError)
	}
	return success(c)
}

// toggleSaved --> POST /api/saved/:albumId/toggle
func (s *Server) toggleSaved(c echo.Context) error {
	albumID, ok := paramID(c, "albumId")
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid album id"))
	}
	saved, err := s.svc.Cart.ToggleSaved(c.Request().Context(), userID(c), albumID)
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, map[string]bool{"saved": saved})
}

// createPaymentIntent --> POST /api/payments/create-intent
func (s *Server) createPaymentIntent(c echo.Context) error {
	intent, err := s.svc.Checkout.CreatePaymentIntent(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, "Payment intent failed")
	}
	return c.JSON(http.StatusOK, intent)
}

// paymentsConfig --> GET /api/payments/config
func (s *Server) paymentsConfig(c echo.Context) error {
	var key *string
	if k := s.svc.Checkout.PublishableKey(); k != "" {
		key = &k
	}
	return c.JSON(http.StatusOK, map[string]*string{"publishable_key": key})
}

// checkout --> POST /api/orders {payment_intent_id?, billing?}
func (s *Server) checkout(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	order, err := s.svc.Checkout.Checkout(c.Request().Context(), userID(c), req)
	if err != nil {
		return fail(c, err, "Order failed")
	}
	return c.JSON(http.StatusOK, order)
}

// listOrders --> GET /api/orders
func (s *Server) listOrders(c echo.Context) error {
	orders, err := s.svc.Checkout.ListOrders(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, orders)
}

// getOrder --> GET /api/orders/:id
func (s *Server) getOrder(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("Order not found"))
	}
	order, err := s.svc.Checkout.GetOrder(c.Request().Context(), userID(c), id)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody("Order not found"))
	}
	if err != nil {
		return fail(c, err, serverError)
	}
	return c.JSON(http.StatusOK, order)
}

// health --> GET /api/health
func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"stripe": s.svc.Checkout.PaymentsEnabled(),
		"email":  s.opts.EmailEnabled,
	})
}
