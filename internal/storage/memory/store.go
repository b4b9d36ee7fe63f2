// Package memory содержит in-memory реализацию хранилища для локальной
// разработки и модульных тестов. Все репозитории разделяют один Store
// и один мьютекс, поэтому создание заказа атомарно, а каскадные и
// запрещающие удаления ведут себя как в реляционной схеме.
package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type outboxRecord struct {
	msg       domain.OutboxMessage
	status    string
	createdAt time.Time
}

// Store хранит состояние всех таблиц в памяти.
type Store struct {
	mu sync.RWMutex

	customers map[int64]domain.Customer
	products  map[int64]domain.Product
	orders    map[int64]domain.Order
	outbox    []*outboxRecord

	nextCustomerID  int64
	nextProductID   int64
	nextOrderID     int64
	nextOrderItemID int64
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		customers: make(map[int64]domain.Customer),
		products:  make(map[int64]domain.Product),
		orders:    make(map[int64]domain.Order),
	}
}

func (s *Store) customerEmailTaken(email string) bool {
	for _, c := range s.customers {
		if c.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) productNameTaken(name string) bool {
	for _, p := range s.products {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) productReferenced(productID int64) bool {
	for _, order := range s.orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

// cloneOrder возвращает копию заказа с копией слайса позиций,
// чтобы вызывающий не мог мутировать состояние хранилища.
func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
