package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storecraft/internal/domain"
)

type DiscountRepo struct{ db *sqlx.DB }

func NewDiscountRepo(db *sqlx.DB) *DiscountRepo { return &DiscountRepo{db: db} }

var ErrCodeTaken = errors.New("discount code already exists for store")

type discountRow struct {
	ID            string         `db:"id"`
	StoreID       string         `db:"store_id"`
	Code          string         `db:"code"`
	Type          string         `db:"type"`
	Value         float64        `db:"value"`
	MinimumAmount float64        `db:"minimum_amount"`
	UsageLimit    sql.NullInt64  `db:"usage_limit"`
	UsedCount     int            `db:"used_count"`
	StartsAt      sql.NullString `db:"starts_at"`
	EndsAt        sql.NullString `db:"ends_at"`
	Active        bool           `db:"is_active"`
	CreatedAt     string         `db:"created_at"`
}

func (r discountRow) toDomain() domain.DiscountCode {
	d := domain.DiscountCode{
		ID: r.ID, StoreID: r.StoreID, Code: r.Code,
		Type: domain.DiscountType(r.Type), Value: r.Value,
		MinimumAmount: r.MinimumAmount, UsedCount: r.UsedCount,
		Active: r.Active, CreatedAt: r.CreatedAt,
	}
	if r.UsageLimit.Valid {
		d.Usage = domain.UsageLimit{Bounded: true, Max: int(r.UsageLimit.Int64)}
	}
	d.StartsAt = parseWindow(r.StartsAt)
	d.EndsAt = parseWindow(r.EndsAt)
	return d
}

func parseWindow(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatWindow(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

const discountCols = `id, store_id, code, type, value, minimum_amount,
  usage_limit, used_count, starts_at, ends_at, is_active, created_at`

// GetByCode resolves a code within a store, matching case-insensitively.
func (r *DiscountRepo) GetByCode(ctx context.Context, storeID, code string) (domain.DiscountCode, error) {
	var row discountRow
	err := r.db.GetContext(ctx, &row, `
	  SELECT `+discountCols+` FROM discount_codes
	  WHERE store_id = ? AND LOWER(code) = LOWER(?)`, storeID, code)
	if err == sql.ErrNoRows {
		return domain.DiscountCode{}, domain.ErrCodeNotFound
	}
	if err != nil {
		return domain.DiscountCode{}, err
	}
	return row.toDomain(), nil
}

func (r *DiscountRepo) Get(ctx context.Context, storeID, id string) (domain.DiscountCode, error) {
	var row discountRow
	err := r.db.GetContext(ctx, &row, `
	  SELECT `+discountCols+` FROM discount_codes WHERE id = ? AND store_id = ?`, id, storeID)
	if err == sql.ErrNoRows {
		return domain.DiscountCode{}, domain.ErrCodeNotFound
	}
	if err != nil {
		return domain.DiscountCode{}, err
	}
	return row.toDomain(), nil
}

func (r *DiscountRepo) ListByStore(ctx context.Context, storeID string) ([]domain.DiscountCode, error) {
	var rows []discountRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT `+discountCols+` FROM discount_codes
	  WHERE store_id = ? ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DiscountCode, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *DiscountRepo) Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	limit := sql.NullInt64{}
	if d.Usage.Bounded {
		limit = sql.NullInt64{Int64: int64(d.Usage.Max), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO discount_codes(id, store_id, code, type, value, minimum_amount,
	    usage_limit, starts_at, ends_at, is_active)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.StoreID, d.Code, string(d.Type), d.Value, d.MinimumAmount,
		limit, formatWindow(d.StartsAt), formatWindow(d.EndsAt), d.Active)
	// Expression indexes surface as "index 'idx_discounts_store_code'".
	if isUniqueViolation(err, "idx_discounts_store_code") {
		return domain.DiscountCode{}, ErrCodeTaken
	}
	if err != nil {
		return domain.DiscountCode{}, err
	}
	return r.Get(ctx, d.StoreID, d.ID)
}

// Update edits the rule fields. used_count is deliberately untouchable here;
// it only moves through Redeem/Unredeem.
func (r *DiscountRepo) Update(ctx context.Context, d domain.DiscountCode) error {
	limit := sql.NullInt64{}
	if d.Usage.Bounded {
		limit = sql.NullInt64{Int64: int64(d.Usage.Max), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
	  UPDATE discount_codes SET code = ?, type = ?, value = ?, minimum_amount = ?,
	    usage_limit = ?, starts_at = ?, ends_at = ?, is_active = ?
	  WHERE id = ? AND store_id = ?`,
		d.Code, string(d.Type), d.Value, d.MinimumAmount,
		limit, formatWindow(d.StartsAt), formatWindow(d.EndsAt), d.Active,
		d.ID, d.StoreID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *DiscountRepo) Delete(ctx context.Context, storeID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discount_codes WHERE id = ? AND store_id = ?`, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

// Redeem durably increments used_count, but only while the limit allows it.
// Under concurrent redemption of the last use, the conditional update lets
// exactly one caller through.
func (r *DiscountRepo) Redeem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE discount_codes
	  SET used_count = used_count + 1
	  WHERE id = ? AND is_active = 1
	    AND (usage_limit IS NULL OR used_count < usage_limit)`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDiscountUsageExhausted
	}
	return nil
}

// Unredeem compensates a redemption whose checkout did not complete. The
// floor guard keeps used_count from going negative if called twice.
func (r *DiscountRepo) Unredeem(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE discount_codes
	  SET used_count = used_count - 1
	  WHERE id = ? AND used_count > 0`, id)
	return err
}
