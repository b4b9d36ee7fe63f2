package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type productRepository struct {
	store *Store
}

// NewProductRepository возвращает in-memory реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store}
}

func (r *productRepository) Add(_ context.Context, product domain.Product) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.productNameTaken(product.Name) {
		return 0, fmt.Errorf("product_name %s: %w", product.Name, domain.ErrConstraintViolation)
	}
	if product.Price.IsNegative() || product.StockQuantity < 0 {
		return 0, fmt.Errorf("product %s: %w", product.Name, domain.ErrConstraintViolation)
	}

	r.store.nextProductID++
	product.ID = r.store.nextProductID
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.store.products[product.ID] = product

	return product.ID, nil
}

func (r *productRepository) Get(_ context.Context, id int64) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepository) SetStock(_ context.Context, id int64, quantity int32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if quantity < 0 {
		return fmt.Errorf("stock_quantity %d: %w", quantity, domain.ErrConstraintViolation)
	}

	product.StockQuantity = quantity
	product.UpdatedAt = time.Now().UTC()
	r.store.products[id] = product

	return nil
}

func (r *productRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	// RESTRICT: товар, на который ссылаются позиции заказов, удалить нельзя.
	if r.store.productReferenced(id) {
		return fmt.Errorf("delete product %d: %w", id, domain.ErrConstraintViolation)
	}
	delete(r.store.products, id)

	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
