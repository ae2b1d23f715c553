package domain

import "time"

// Store is the tenant root. Every other entity hangs off its ID.
type Store struct {
	ID          string
	UserID      string
	Name        string
	Slug        string
	Description string
	Active      bool
	CreatedAt   string
	UpdatedAt   string
}

// StockLevel distinguishes untracked (sell forever) stock from a counted
// quantity. When Tracked is true, Units never goes negative.
type StockLevel struct {
	Tracked bool
	Units   int
}

type Product struct {
	ID          string
	StoreID     string
	Name        string
	Slug        string
	Description string
	SKU         string
	Price       float64
	Stock       StockLevel
	Active      bool
	Featured    bool
	CreatedAt   string
	UpdatedAt   string
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed_amount"
)

// UsageLimit bounds how many times a code can be redeemed.
// Unbounded when Bounded is false.
type UsageLimit struct {
	Bounded bool
	Max     int
}

type DiscountCode struct {
	ID            string
	StoreID       string
	Code          string
	Type          DiscountType
	Value         float64
	MinimumAmount float64
	Usage         UsageLimit
	UsedCount     int
	StartsAt      *time.Time
	EndsAt        *time.Time
	Active        bool
	CreatedAt     string
}

type BuyerInfo struct {
	Email string
	Phone string
	Note  string
}

type Order struct {
	ID           string
	StoreID      string
	Number       string
	Email        string
	Phone        string
	Note         string
	DiscountCode string
	Subtotal     float64
	Discount     float64
	Shipping     float64
	Tax          float64
	Total        float64
	Financial    FinancialStatus
	Fulfillment  FulfillmentStatus
	Items        []LineItem
	CreatedAt    string
	UpdatedAt    string
}

// LineItem is a frozen snapshot of a purchased product. The product may be
// edited or deleted later; the captured title/sku/price stand.
type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	Title     string
	SKU       string
	Price     float64
	Quantity  int
}

// Availability is the storefront stock badge payload.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
