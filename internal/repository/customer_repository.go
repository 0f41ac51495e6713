package repository

import (
	"context"

	"github.com/kkkkikiki/punchcard/internal/model"
)

// CreateCustomer inserts a new customer
func (r *Postgres) CreateCustomer(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Email, c.PasswordHash, c.CreatedAt); err != nil {
		return insertErr(err, "customer")
	}
	return nil
}

// GetCustomer retrieves a customer by ID
func (r *Postgres) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	query := `SELECT id, email, password_hash, created_at FROM customers WHERE id = $1`

	var customer model.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, notFound(err, "customer")
	}
	return &customer, nil
}
