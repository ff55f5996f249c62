package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"

	"github.com/shopspring/decimal"
)

// Order database operations

const orderColumns = `o.id, o.user_id, o.total, o.status, o.stripe_payment_intent_id,
	o.billing_name, o.billing_email, o.billing_address, o.billing_city, o.billing_state,
	o.billing_zip, o.billing_country, o.created_at`

const orderItemColumns = `oi.id, oi.order_id, oi.album_id, oi.quantity, oi.price,
	a.title, a.artist, a.cover_url, a.genre`

func scanOrder(s scanner) (models.Order, error) {
	var o models.Order
	var ref, name, email, addr, city, state, zip sql.NullString
	err := s.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &ref,
		&name, &email, &addr, &city, &state, &zip, &o.Billing.Country, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.PaymentIntentID = ref.String
	o.Billing.Name = name.String
	o.Billing.Email = email.String
	o.Billing.Address = addr.String
	o.Billing.City = city.String
	o.Billing.State = state.String
	o.Billing.Zip = zip.String
	o.Items = []models.OrderItem{}
	return o, nil
}

func scanOrderItem(s scanner) (models.OrderItem, error) {
	var it models.OrderItem
	err := s.Scan(&it.ID, &it.OrderID, &it.AlbumID, &it.Quantity, &it.Price,
		&it.Title, &it.Artist, &it.CoverURL, &it.Genre)
	return it, err
}

// CreateOrderFromCart converts the user's cart into an order in a single
// transaction: snapshot the cart, price it, insert the order and one item
// per line, then empty the cart. An empty cart yields ErrEmptyCart and
// nothing is written.
func (r *Repository) CreateOrderFromCart(ctx context.Context, userID int64, paymentRef string, billing models.Billing) (models.Order, error) {
	logger.Log.Debugw("Starting checkout transaction", "user_id", userID)

	if billing.Country == "" {
		billing.Country = models.DefaultBillingCountry
	}
	order := models.Order{
		UserID:          userID,
		Status:          models.OrderStatusCompleted,
		PaymentIntentID: paymentRef,
		Billing:         billing,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}

	err := r.withTx(ctx, "createOrderFromCart", func(tx *sql.Tx) error {
		lines, err := r.cartLines(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Subtotal())
		}
		order.Total = total

		logger.Log.Debugw("Cart snapshot priced", "user_id", userID, "lines", len(lines), "total", total.StringFixed(2))

		order.ID, err = r.db.Dialect.InsertID(ctx, tx, `INSERT INTO orders
			(user_id, total, status, stripe_payment_intent_id, billing_name, billing_email,
			 billing_address, billing_city, billing_state, billing_zip, billing_country, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, total.StringFixed(2), order.Status, nullString(paymentRef),
			nullString(billing.Name), nullString(billing.Email), nullString(billing.Address),
			nullString(billing.City), nullString(billing.State), nullString(billing.Zip),
			billing.Country, order.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		order.Items = make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			item := models.OrderItem{
				OrderID:  order.ID,
				AlbumID:  l.ID,
				Quantity: l.Quantity,
				Price:    l.Price,
				Title:    l.Title,
				Artist:   l.Artist,
				CoverURL: l.CoverURL,
				Genre:    l.Genre,
			}
			item.ID, err = r.db.Dialect.InsertID(ctx, tx,
				"INSERT INTO order_items (order_id, album_id, quantity, price) VALUES (?, ?, ?, ?)",
				order.ID, l.ID, l.Quantity, l.Price.StringFixed(2))
			if err != nil {
				return fmt.Errorf("insert order item for album %d: %w", l.ID, err)
			}
			order.Items = append(order.Items, item)
		}

		if err := r.clearCart(ctx, tx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrEmptyCart) {
		logger.Log.Infow("Checkout rejected, cart is empty", "user_id", userID)
		return models.Order{}, ErrEmptyCart
	}
	if err != nil {
		logger.Log.Errorw("Checkout transaction rolled back", "user_id", userID, "error", err)
		return models.Order{}, fmt.Errorf("createOrderFromCart: %w", err)
	}

	logger.Log.Infow("Order committed", "order_id", order.ID, "user_id", userID,
		"items", len(order.Items), "total", order.Total.StringFixed(2))
	return order, nil
}

// ListOrders returns the user's orders, newest first, with their items
func (r *Repository) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, r.q("SELECT "+orderColumns+
		" FROM orders o WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC"), userID)
	if err != nil {
		logger.Log.Errorw("Failed to query orders", "user_id", userID, "error", err)
		return nil, fmt.Errorf("listOrders %d: %w", userID, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := map[int64]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			logger.Log.Errorw("Failed to scan order", "user_id", userID, "error", err)
			return nil, fmt.Errorf("listOrders %d: %w", userID, err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listOrders %d: %w", userID, err)
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, r.q("SELECT "+orderItemColumns+`
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		JOIN albums a ON oi.album_id = a.id
		WHERE o.user_id = ? ORDER BY oi.id`), userID)
	if err != nil {
		logger.Log.Errorw("Failed to query order items", "user_id", userID, "error", err)
		return nil, fmt.Errorf("listOrders %d: items: %w", userID, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		it, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("listOrders %d: items: %w", userID, err)
		}
		it.Genre = ""
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("listOrders %d: items: %w", userID, err)
	}
	return orders, nil
}

// GetOrder returns one order owned by userID. Orders of other users are
// reported as ErrNotFound.
func (r *Repository) GetOrder(ctx context.Context, userID, orderID int64) (models.Order, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+orderColumns+" FROM orders o WHERE o.id = ? AND o.user_id = ?"),
		orderID, userID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		logger.Log.Errorw("Failed to load order", "order_id", orderID, "user_id", userID, "error", err)
		return models.Order{}, fmt.Errorf("getOrder %d: %w", orderID, err)
	}

	rows, err := r.db.QueryContext(ctx, r.q("SELECT "+orderItemColumns+`
		FROM order_items oi JOIN albums a ON oi.album_id = a.id
		WHERE oi.order_id = ? ORDER BY oi.id`), orderID)
	if err != nil {
		logger.Log.Errorw("Failed to query order items", "order_id", orderID, "error", err)
		return models.Order{}, fmt.Errorf("getOrder %d: items: %w", orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return models.Order{}, fmt.Errorf("getOrder %d: items: %w", orderID, err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return models.Order{}, fmt.Errorf("getOrder %d: items: %w", orderID, err)
	}
	return order, nil
}
