package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore implements ProductStore on top of SQLite.
// With the ":memory:" DSN the products live for as long as the store is open.
type SQLiteStore struct {
	db *sql.DB
}

var _ ProductStore = (*SQLiteStore)(nil)

// OpenSQLite opens the SQLite database at dsn (":memory:" for an in-memory database)
// and creates the products table if it does not exist.
//
// The pool is limited to a single connection: an in-memory database exists per
// connection, and a single writer keeps id assignment strictly sequential.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database. With an in-memory DSN every product is discarded.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a product and returns the row id SQLite assigned to it.
func (s *SQLiteStore) Create(ctx context.Context, name string, price float64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO products (name, price) VALUES (?, ?)`, name, price)
	if err != nil {
		return 0, storageError("create product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageError("create product", err)
	}
	return id, nil
}

// FindAll returns every product ordered by id.
func (s *SQLiteStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, storageError("list products", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, storageError("list products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list products", err)
	}
	return products, nil
}

// Ping checks that the database is still open and answering.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}
