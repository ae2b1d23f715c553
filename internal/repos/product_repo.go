package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storecraft/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID          string        `db:"id"`
	StoreID     string        `db:"store_id"`
	Name        string        `db:"name"`
	Slug        string        `db:"slug"`
	Description string        `db:"description"`
	SKU         string        `db:"sku"`
	Price       float64       `db:"price"`
	Quantity    sql.NullInt64 `db:"quantity"`
	Track       bool          `db:"track_quantity"`
	Active      bool          `db:"is_active"`
	Featured    bool          `db:"is_featured"`
	CreatedAt   string        `db:"created_at"`
	UpdatedAt   string        `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	p := domain.Product{
		ID: r.ID, StoreID: r.StoreID, Name: r.Name, Slug: r.Slug,
		Description: r.Description, SKU: r.SKU, Price: r.Price,
		Active: r.Active, Featured: r.Featured,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.Track {
		p.Stock = domain.StockLevel{Tracked: true, Units: int(r.Quantity.Int64)}
	}
	return p
}

const productCols = `id, store_id, name, slug, COALESCE(description,'') AS description,
  COALESCE(sku,'') AS sku, price, quantity, track_quantity, is_active, is_featured,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

// ListActiveByStore is the public storefront read path: active products,
// featured first, newest first.
func (r *ProductRepo) ListActiveByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+productCols+` FROM products
	  WHERE store_id = ? AND is_active = 1
	  ORDER BY is_featured DESC, created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	return rowsToProducts(rows), nil
}

func (r *ProductRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+productCols+` FROM products
	  WHERE store_id = ?
	  ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	return rowsToProducts(rows), nil
}

func rowsToProducts(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	qty := sql.NullInt64{}
	if p.Stock.Tracked {
		qty = sql.NullInt64{Int64: int64(p.Stock.Units), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(id, store_id, name, slug, description, sku, price,
	    quantity, track_quantity, is_active, is_featured)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StoreID, p.Name, p.Slug, p.Description, p.SKU, p.Price,
		qty, p.Stock.Tracked, p.Active, p.Featured)
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, p.ID)
}

// Update rewrites the editable fields, including the stock level. Stock edits
// here are the owner restating truth (a recount), not a reservation; shopper
// decrements only ever go through Reserve.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	qty := sql.NullInt64{}
	if p.Stock.Tracked {
		qty = sql.NullInt64{Int64: int64(p.Stock.Units), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products SET name = ?, slug = ?, description = ?, sku = ?, price = ?,
	    quantity = ?, track_quantity = ?, is_active = ?, is_featured = ?,
	    updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND store_id = ?`,
		p.Name, p.Slug, p.Description, p.SKU, p.Price,
		qty, p.Stock.Tracked, p.Active, p.Featured, p.ID, p.StoreID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, storeID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ? AND store_id = ?`, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Reserve atomically decrements stock for a tracked product, only if enough
// units remain. The decrement is a single conditional statement; the prior
// lookup merely classifies failures and short-circuits untracked products.
func (r *ProductRepo) Reserve(ctx context.Context, productID string, qty int) error {
	p, err := r.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return domain.ErrProductInactive
	}
	if !p.Stock.Tracked {
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND is_active = 1 AND track_quantity = 1 AND quantity >= ?`,
		qty, productID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost the race or never had the units; re-read for the error detail.
		available := 0
		if cur, err := r.Get(ctx, productID); err == nil {
			available = cur.Stock.Units
		}
		return &domain.InsufficientStockError{ProductID: productID, Available: available, Requested: qty}
	}
	return nil
}

// Release returns previously reserved units. A no-op for untracked products,
// and never an error for a product that has since been deleted.
func (r *ProductRepo) Release(ctx context.Context, productID string, qty int) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND track_quantity = 1`, qty, productID)
	return err
}
