package domain

import "context"

// CustomerRepository описывает требования к хранилищу покупателей.
type CustomerRepository interface {
	// Add сохраняет покупателя и возвращает сгенерированный идентификатор.
	Add(ctx context.Context, customer Customer) (int64, error)
	// Get возвращает покупателя или ErrCustomerNotFound, если его нет.
	Get(ctx context.Context, id int64) (Customer, error)
	// Delete удаляет покупателя; его заказы и позиции удаляются каскадно.
	Delete(ctx context.Context, id int64) error
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Add сохраняет товар и возвращает сгенерированный идентификатор.
	Add(ctx context.Context, product Product) (int64, error)
	// Get возвращает товар или ErrProductNotFound, если его нет.
	Get(ctx context.Context, id int64) (Product, error)
	// SetStock выставляет остаток товара в абсолютное значение.
	SetStock(ctx context.Context, id int64, quantity int32) error
	// Delete удаляет товар; при наличии ссылающихся позиций заказов
	// возвращает ErrConstraintViolation (ON DELETE RESTRICT).
	Delete(ctx context.Context, id int64) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// CreateOrder атомарно создаёт заказ: проверяет и списывает остатки,
	// считает сумму, вставляет заказ и позиции. Любая ошибка означает
	// полный откат — состояние хранилища не меняется.
	CreateOrder(ctx context.Context, req NewOrderRequest) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// SetStatus переводит заказ в новый статус из допустимого множества.
	SetStatus(ctx context.Context, id int64, status OrderStatus) error
	// HistoryByCustomer возвращает историю заказов покупателя из
	// представления customer_order_details: новые заказы первыми,
	// затем по order_id, затем по названию товара.
	HistoryByCustomer(ctx context.Context, customerID int64) ([]HistoryEntry, error)
	// TopSellingProducts возвращает товары по убыванию суммарно проданного количества.
	TopSellingProducts(ctx context.Context, limit int) ([]ProductSales, error)
}
