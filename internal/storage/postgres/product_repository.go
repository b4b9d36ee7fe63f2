package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Add(ctx context.Context, product domain.Product) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var description any
	if product.Description != "" {
		description = product.Description
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (product_name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING product_id
	`, product.Name, description, product.Price, product.StockQuantity).Scan(&id)
	if err != nil {
		return 0, mapStoreError("insert product", err)
	}

	return id, nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		product     domain.Product
		description sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, product_name, description, price, stock_quantity, created_at, updated_at
		FROM products
		WHERE product_id = $1
	`, id).Scan(
		&product.ID, &product.Name, &description,
		&product.Price, &product.StockQuantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, mapStoreError("select product", err)
	}
	product.Description = description.String

	return product, nil
}

func (r *productRepository) SetStock(ctx context.Context, id int64, quantity int32) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE product_id = $1
	`, id, quantity)
	if err != nil {
		return mapStoreError("update product stock", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapStoreError("update product stock rows affected", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// ON DELETE RESTRICT: товар с позициями заказов удалить нельзя.
	// Нарушение здесь — запрет схемы, а не отсутствующая ссылка,
	// поэтому FK-ошибка переводится в ErrConstraintViolation.
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete product %d: %w", id, domain.ErrConstraintViolation)
		}
		return mapStoreError("delete product", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapStoreError("delete product rows affected", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
