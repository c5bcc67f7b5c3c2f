package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

var _ ProductStore = (*PgStore)(nil)

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
// The schema is expected to be migrated already (see Migrations).
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

// Create adds a new product and returns the identity value assigned to it.
func (p *PgStore) Create(ctx context.Context, name string, price float64) (int64, error) {
	var id int64
	err := p.db.QueryRow(ctx,
		`INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`,
		name, price,
	).Scan(&id)
	if err != nil {
		return 0, storageError("create product", err)
	}
	return id, nil
}

// FindAll retrieves all products ordered by id.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, `SELECT id, name, price FROM products ORDER BY id`)
	if err != nil {
		return nil, storageError("list products", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		return nil, storageError("list products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Ping checks that a connection can be acquired and used.
func (p *PgStore) Ping(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}
