package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const opTimeout = 5 * time.Second

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Add(ctx context.Context, customer domain.Customer) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var phone any
	if customer.Phone != "" {
		phone = customer.Phone
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING customer_id
	`, customer.FirstName, customer.LastName, customer.Email, phone).Scan(&id)
	if err != nil {
		return 0, mapStoreError("insert customer", err)
	}

	return id, nil
}

func (r *customerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		customer domain.Customer
		phone    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT customer_id, first_name, last_name, email, phone, registration_date
		FROM customers
		WHERE customer_id = $1
	`, id).Scan(
		&customer.ID, &customer.FirstName, &customer.LastName,
		&customer.Email, &phone, &customer.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, mapStoreError("select customer", err)
	}
	customer.Phone = phone.String

	return customer, nil
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Заказы и позиции покупателя удаляются каскадно (ON DELETE CASCADE).
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		return mapStoreError("delete customer", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapStoreError("delete customer rows affected", err)
	}
	if affected == 0 {
		return domain.ErrCustomerNotFound
	}

	return nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
