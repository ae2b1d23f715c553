package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storecraft/internal/domain"
)

type StoreRepo struct{ db *sqlx.DB }

func NewStoreRepo(db *sqlx.DB) *StoreRepo { return &StoreRepo{db: db} }

var ErrSlugTaken = errors.New("store slug already in use")

type storeRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Active      bool   `db:"is_active"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r storeRow) toDomain() domain.Store {
	return domain.Store{
		ID: r.ID, UserID: r.UserID, Name: r.Name, Slug: r.Slug,
		Description: r.Description, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const storeCols = `id, user_id, name, slug, COALESCE(description,'') AS description,
  is_active, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *StoreRepo) Get(ctx context.Context, id string) (domain.Store, error) {
	var row storeRow
	err := r.db.GetContext(ctx, &row, `SELECT `+storeCols+` FROM stores WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	if err != nil {
		return domain.Store{}, err
	}
	return row.toDomain(), nil
}

func (r *StoreRepo) GetBySlug(ctx context.Context, slug string) (domain.Store, error) {
	var row storeRow
	err := r.db.GetContext(ctx, &row, `SELECT `+storeCols+` FROM stores WHERE LOWER(slug) = LOWER(?)`, slug)
	if err == sql.ErrNoRows {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	if err != nil {
		return domain.Store{}, err
	}
	return row.toDomain(), nil
}

func (r *StoreRepo) ListByUser(ctx context.Context, userID string) ([]domain.Store, error) {
	var rows []storeRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+storeCols+` FROM stores WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Store, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StoreRepo) Create(ctx context.Context, userID, name, slug, description string) (domain.Store, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO stores(id, user_id, name, slug, description)
	  VALUES (?, ?, ?, ?, ?)`, id, userID, name, slug, description)
	if isUniqueViolation(err, "idx_stores_slug") {
		return domain.Store{}, ErrSlugTaken
	}
	if err != nil {
		return domain.Store{}, err
	}
	return r.Get(ctx, id)
}

// Update changes name/description only. The slug is immutable once created;
// products and orders reference the store through it.
func (r *StoreRepo) Update(ctx context.Context, id, name, description string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE stores SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, name, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}

func (r *StoreRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE stores SET is_active = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}
