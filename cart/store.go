// Package cart is the local persisted cart store. Carts live on the client
// side only; the platform services never see them until checkout.
package cart

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite cart database.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the cart database and runs migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cart db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{sqlDB}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate cart db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.Exec(`
		CREATE TABLE IF NOT EXISTS cart_items (
			id             TEXT PRIMARY KEY,
			cart_id        TEXT NOT NULL,
			item_id        TEXT NOT NULL,
			name           TEXT NOT NULL,
			restaurant_id  TEXT NOT NULL,
			price          REAL NOT NULL,
			quantity       INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE (cart_id, item_id)
		);
		CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items (cart_id);
	`)
	return err
}
