// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"embed"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
)

// Migrations holds the PostgreSQL schema migrations in golang-migrate layout.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files.
const MigrationsDir = "migrations"

// Product represents a product entity in the store.
type Product struct {
	ID    int64
	Name  string
	Price float64
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., sqlite, postgres).
// Every failure of the medium is returned as a *errors.StorageError.
type ProductStore interface {
	// Create adds a new product and returns the id assigned to it.
	// Ids are strictly increasing and never reused.
	Create(ctx context.Context, name string, price float64) (int64, error)

	// FindAll returns every stored product in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Ping reports whether the medium is reachable.
	Ping(ctx context.Context) error
}

func storageError(op string, err error) error {
	return &perrors.StorageError{Op: op, Err: err}
}
