package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора покупателя.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего идентификатора товара в строке заказа.
	ErrProductRequired = errors.New("product_id is required")
	// Ошибка пустого заказа.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// Ошибка повторения товара в одном заказе.
	ErrDuplicateOrderLine = errors.New("product appears more than once in order")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total_amount must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// Ошибка недопустимого статуса заказа.
	ErrStatusInvalid = errors.New("order status is not a legal value")
	// Ошибка отсутствующего имени покупателя.
	ErrFirstNameRequired = errors.New("first_name is required")
	// Ошибка отсутствующей фамилии покупателя.
	ErrLastNameRequired = errors.New("last_name is required")
	// Ошибка отсутствующего email.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product_name is required")
	// Ошибка отрицательной цены.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("stock_quantity must be non-negative")

	// ErrCustomerNotFound возвращается, если покупатель не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientStock — маркер нехватки остатка; детали несёт InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownReference — нарушен внешний ключ: customer_id или product_id не существует.
	ErrUnknownReference = errors.New("referenced row does not exist")
	// ErrConstraintViolation — нарушено ограничение уникальности или CHECK.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrConnectivity — хранилище недоступно или транзакция не зафиксировалась.
	ErrConnectivity = errors.New("store connectivity failure")
)

// InsufficientStockError сообщает, какого товара не хватило и в каком объёме.
// Сопоставляется с ErrInsufficientStock через errors.Is.
type InsufficientStockError struct {
	ProductID int64
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"product %d has insufficient stock: requested %d, available %d",
		e.ProductID, e.Requested, e.Available,
	)
}

// Is обеспечивает errors.Is(err, ErrInsufficientStock) для типизированной ошибки.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
