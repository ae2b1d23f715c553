package repos

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one pooled connection keeps every
	// conditional read-modify-write linearizable and avoids SQLITE_BUSY.
	// It also makes :memory: safe (each connection would get its own DB).
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Owner accounts & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Stores (tenants)
CREATE TABLE IF NOT EXISTS stores(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stores_slug ON stores(LOWER(slug));
CREATE INDEX IF NOT EXISTS idx_stores_user ON stores(user_id);

-- Products. quantity is NULL when stock is not tracked.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  sku TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
  track_quantity INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_store_slug ON products(store_id, LOWER(slug));

-- Discount codes; code is unique per store, case-insensitive.
CREATE TABLE IF NOT EXISTS discount_codes(
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('percentage','fixed_amount')),
  value NUMERIC NOT NULL CHECK (value >= 0),
  minimum_amount NUMERIC NOT NULL DEFAULT 0,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
  starts_at TEXT,
  ends_at TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_discounts_store_code ON discount_codes(store_id, LOWER(code));

-- Orders; order_number is unique within a store.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL REFERENCES stores(id),
  order_number TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  note TEXT,
  discount_code TEXT,
  subtotal_price NUMERIC NOT NULL,
  total_discounts NUMERIC NOT NULL DEFAULT 0,
  total_shipping NUMERIC NOT NULL DEFAULT 0,
  total_tax NUMERIC NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL,
  financial_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (financial_status IN ('pending','paid','refunded','failed')),
  fulfillment_status TEXT NOT NULL DEFAULT 'unfulfilled'
    CHECK (fulfillment_status IN ('unfulfilled','partially_fulfilled','fulfilled','cancelled')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_store_number ON orders(store_id, order_number);
CREATE INDEX IF NOT EXISTS idx_orders_store_created ON orders(store_id, created_at);

-- Immutable snapshots; product_id survives product deletion as NULL.
CREATE TABLE IF NOT EXISTS order_line_items(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT REFERENCES products(id) ON DELETE SET NULL,
  title TEXT NOT NULL,
  sku TEXT,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1)
);
CREATE INDEX IF NOT EXISTS idx_line_items_order ON order_line_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedIfEmpty inserts a demo owner, store, products and discount codes when
// the database has no users yet. Idempotent; safe to run every start.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo owner/store/products/discounts")

	hash, _ := bcrypt.GenerateFromPassword([]byte("Demo1234!"), 12)

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO users(id,email,name,password_hash) VALUES
	  ('u-demo','owner@storecraft.test','Demo Owner',?)`, string(hash))

	tx.MustExec(`INSERT INTO stores(id,user_id,name,slug,description) VALUES
	  ('st-demo','u-demo','Demo Goods','demo-goods','A demonstration storefront')`)

	tx.MustExec(`INSERT INTO products(id,store_id,name,slug,sku,price,quantity,track_quantity,is_active,is_featured) VALUES
	  ('p-mug','st-demo','Enamel Mug','enamel-mug','MUG-01',14.50,25,1,1,1),
	  ('p-tee','st-demo','Logo Tee','logo-tee','TEE-01',24.00,8,1,1,0),
	  ('p-card','st-demo','Gift Card','gift-card','GC-01',50.00,NULL,0,1,0)`)

	tx.MustExec(`INSERT INTO discount_codes(id,store_id,code,type,value,minimum_amount,usage_limit) VALUES
	  ('d-save10','st-demo','SAVE10','percentage',10,0,NULL),
	  ('d-launch','st-demo','LAUNCH5','fixed_amount',5,20,100)`)

	return tx.Commit()
}

// isUniqueViolation matches the sqlite unique-constraint error text for a
// given index/column hint.
func isUniqueViolation(err error, hint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, hint)
}
