package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type customerRepository struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{store: store}
}

func (r *customerRepository) Add(_ context.Context, customer domain.Customer) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.customerEmailTaken(customer.Email) {
		return 0, fmt.Errorf("email %s: %w", customer.Email, domain.ErrConstraintViolation)
	}

	r.store.nextCustomerID++
	customer.ID = r.store.nextCustomerID
	if customer.RegistrationDate.IsZero() {
		customer.RegistrationDate = time.Now().UTC()
	}
	r.store.customers[customer.ID] = customer

	return customer.ID, nil
}

func (r *customerRepository) Get(_ context.Context, id int64) (domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	customer, ok := r.store.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.store.customers, id)

	// Каскад: заказы покупателя удаляются вместе с позициями.
	for orderID, order := range r.store.orders {
		if order.CustomerID == id {
			delete(r.store.orders, orderID)
		}
	}

	return nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
