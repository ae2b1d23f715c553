package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storecraft/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ErrOrderNumberTaken signals a store-scoped order number collision; the
// orchestrator regenerates and retries a bounded number of times.
var ErrOrderNumberTaken = errors.New("order number already taken")

type orderRow struct {
	ID          string  `db:"id"`
	StoreID     string  `db:"store_id"`
	Number      string  `db:"order_number"`
	Email       string  `db:"email"`
	Phone       string  `db:"phone"`
	Note        string  `db:"note"`
	Code        string  `db:"discount_code"`
	Subtotal    float64 `db:"subtotal_price"`
	Discount    float64 `db:"total_discounts"`
	Shipping    float64 `db:"total_shipping"`
	Tax         float64 `db:"total_tax"`
	Total       float64 `db:"total_price"`
	Financial   string  `db:"financial_status"`
	Fulfillment string  `db:"fulfillment_status"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

func (r orderRow) toDomain() domain.Order {
	return domain.Order{
		ID: r.ID, StoreID: r.StoreID, Number: r.Number,
		Email: r.Email, Phone: r.Phone, Note: r.Note, DiscountCode: r.Code,
		Subtotal: r.Subtotal, Discount: r.Discount, Shipping: r.Shipping,
		Tax: r.Tax, Total: r.Total,
		Financial:   domain.FinancialStatus(r.Financial),
		Fulfillment: domain.FulfillmentStatus(r.Fulfillment),
		CreatedAt:   r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type lineItemRow struct {
	ID        string  `db:"id"`
	OrderID   string  `db:"order_id"`
	ProductID string  `db:"product_id"`
	Title     string  `db:"title"`
	SKU       string  `db:"sku"`
	Price     float64 `db:"price"`
	Quantity  int     `db:"quantity"`
}

const orderCols = `id, store_id, order_number, COALESCE(email,'') AS email,
  COALESCE(phone,'') AS phone, COALESCE(note,'') AS note,
  COALESCE(discount_code,'') AS discount_code,
  subtotal_price, total_discounts, total_shipping, total_tax, total_price,
  financial_status, fulfillment_status, created_at, COALESCE(updated_at,'') AS updated_at`

// Create persists the order header and every line item in one transaction.
// Either the whole order exists afterwards or none of it does.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	  INSERT INTO orders(id, store_id, order_number, email, phone, note, discount_code,
	    subtotal_price, total_discounts, total_shipping, total_tax, total_price,
	    financial_status, fulfillment_status)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.StoreID, o.Number, o.Email, o.Phone, o.Note, o.DiscountCode,
		o.Subtotal, o.Discount, o.Shipping, o.Tax, o.Total,
		string(o.Financial), string(o.Fulfillment))
	if isUniqueViolation(err, "order_number") {
		return ErrOrderNumberTaken
	}
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_line_items(id, order_id, product_id, title, sku, price, quantity)
		  VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.ProductID, it.Title, it.SKU, it.Price, it.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o := row.toDomain()

	var items []lineItemRow
	if err := r.db.SelectContext(ctx, &items, `
	  SELECT id, order_id, COALESCE(product_id,'') AS product_id, title,
	    COALESCE(sku,'') AS sku, price, quantity
	  FROM order_line_items WHERE order_id = ? ORDER BY title`, id); err != nil {
		return domain.Order{}, err
	}
	for _, it := range items {
		o.Items = append(o.Items, domain.LineItem{
			ID: it.ID, OrderID: it.OrderID, ProductID: it.ProductID,
			Title: it.Title, SKU: it.SKU, Price: it.Price, Quantity: it.Quantity,
		})
	}
	return o, nil
}

func (r *OrderRepo) ListByStore(ctx context.Context, storeID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+orderCols+` FROM orders
	  WHERE store_id = ?
	  ORDER BY datetime(created_at) DESC, order_number DESC
	  LIMIT ?`, storeID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// HasOpenOrders reports whether any order still blocks store deactivation.
func (r *OrderRepo) HasOpenOrders(ctx context.Context, storeID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM orders
	  WHERE store_id = ?
	    AND ((financial_status = 'pending' AND fulfillment_status != 'cancelled')
	      OR (financial_status = 'paid' AND fulfillment_status IN ('unfulfilled','partially_fulfilled')))`,
		storeID)
	return n > 0, err
}

// SetFinancialStatus moves financial_status from a known prior state. The
// WHERE clause makes the transition conditional, so two concurrent updates
// cannot both win from the same starting state.
func (r *OrderRepo) SetFinancialStatus(ctx context.Context, id string, from, to domain.FinancialStatus) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET financial_status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND financial_status = ?`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.InvalidTransitionError{Field: "financial_status", From: string(from), To: string(to)}
	}
	return nil
}

func (r *OrderRepo) SetFulfillmentStatus(ctx context.Context, id string, from, to domain.FulfillmentStatus) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET fulfillment_status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND fulfillment_status = ?`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.InvalidTransitionError{Field: "fulfillment_status", From: string(from), To: string(to)}
	}
	return nil
}

// RestockItems returns every tracked line-item quantity to the catalog after
// a cancellation. One statement; products that stopped tracking quantity or
// were deleted are skipped.
func (r *OrderRepo) RestockItems(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET quantity = quantity + (
	        SELECT oli.quantity FROM order_line_items oli
	        WHERE oli.order_id = ? AND oli.product_id = products.id),
	      updated_at = CURRENT_TIMESTAMP
	  WHERE track_quantity = 1
	    AND id IN (SELECT product_id FROM order_line_items WHERE order_id = ?)`,
		orderID, orderID)
	return err
}
