package postgres

import (
	"context"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
)

const customerColumns = `id, customer_number, first_name, last_name, company, email, phone,
	street, postal_code, city, country, notes, is_active, created_at, updated_at`

type customerRepository struct {
	db repository.DBTX
}

func NewCustomerRepository(db repository.DBTX) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(&c.ID, &c.CustomerNumber, &c.FirstName, &c.LastName, &c.Company, &c.Email, &c.Phone,
		&c.Street, &c.PostalCode, &c.City, &c.Country, &c.Notes, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.CustomerNumber, c.FirstName, c.LastName, c.Company, c.Email, c.Phone,
		c.Street, c.PostalCode, c.City, c.Country, c.Notes, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return wrapErr("postgres.CustomerRepository.Create", err)
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr("postgres.CustomerRepository.GetByID", err)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET first_name=$1, last_name=$2, company=$3, email=$4, phone=$5, street=$6,
	          postal_code=$7, city=$8, country=$9, notes=$10, is_active=$11, updated_at=$12 WHERE id=$13`
	res, err := r.db.ExecContext(ctx, query, c.FirstName, c.LastName, c.Company, c.Email, c.Phone, c.Street,
		c.PostalCode, c.City, c.Country, c.Notes, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return wrapErr("postgres.CustomerRepository.Update", err)
	}
	return requireAffected("postgres.CustomerRepository.Update", res)
}

func (r *customerRepository) List(ctx context.Context, search string) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers`
	var args []any
	if search != "" {
		query += ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR company ILIKE $1 OR customer_number ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY last_name, first_name, company`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("postgres.CustomerRepository.List", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, wrapErr("postgres.CustomerRepository.List", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.CustomerRepository.List", err)
	}
	return customers, nil
}

// Delete removes the customer; rentals keep their history with customer_id nulled.
func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapErr("postgres.CustomerRepository.Delete", err)
	}
	return requireAffected("postgres.CustomerRepository.Delete", res)
}
