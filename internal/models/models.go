package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Checkout only ever writes OrderStatusCompleted.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// DefaultBillingCountry is stored when the billing snapshot has no country.
const DefaultBillingCountry = "US"

// Album represents a catalog record
type Album struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Artist      string          `json:"artist"`
	Genre       string          `json:"genre"`
	Year        int             `json:"year"`
	Price       decimal.Decimal `json:"price"`
	CoverURL    string          `json:"cover_url"`
	Description string          `json:"description"`
	Tracks      int             `json:"tracks"`
	Rating      float64         `json:"rating"`
	Featured    bool            `json:"featured"`
	NewRelease  bool            `json:"new_release"`
}

// AlbumFilter selects and orders catalog listings. Zero values mean "any".
type AlbumFilter struct {
	Genre      string `json:"genre" query:"genre"`
	Search     string `json:"search" query:"search"`
	Featured   bool   `json:"featured" query:"featured"`
	NewRelease bool   `json:"new_release" query:"new_release"`
	Sort       string `json:"sort" query:"sort"`
}

// Recognized AlbumFilter.Sort values.
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
)

// User is the public view of an account; the password hash never leaves
// the repository.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Credentials is a user row including the stored password hash.
type Credentials struct {
	User
	PasswordHash string
}

// CartLine is a cart row joined with its album. The album fields are
// flattened, so ID is the album id.
type CartLine struct {
	Album
	CartItemID int64 `json:"cart_item_id"`
	Quantity   int   `json:"quantity"`
}

// Subtotal is price times quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SavedAlbum is a wishlist row joined with its album.
type SavedAlbum struct {
	Album
	SavedItemID int64 `json:"saved_item_id"`
}

// Billing is the address snapshot copied onto an order at checkout.
type Billing struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Order is an immutable purchase record.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"stripe_payment_intent_id,omitempty"`
	Billing         Billing         `json:"billing"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem holds the price at purchase time plus album display fields.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	AlbumID  int64           `json:"album_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	CoverURL string          `json:"cover_url"`
	Genre    string          `json:"genre,omitempty"`
}

// Subtotal is price times quantity for the item.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// WSMessage is one catalog-feed request. Data is decoded per action.
type WSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// WSResponse answers one WSMessage
type WSResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
