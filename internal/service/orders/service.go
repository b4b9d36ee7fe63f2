// Package orders реализует прикладной сервис заказов поверх доменных
// репозиториев: валидация запроса, транзакция создания, отчётные чтения.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

// Service — сервис заказов. Хранилище передаётся явно, никакого
// глобального состояния или разделяемого подключения на уровне пакета.
type Service struct {
	orders  domain.OrderRepository
	logger  *log.Entry
	metrics *metrics.OrderMetrics
}

// NewService конструирует сервис с зависимостями. metrics может быть nil.
func NewService(orders domain.OrderRepository, m *metrics.OrderMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:  orders,
		logger:  logger,
		metrics: m,
	}
}

// CreateOrder проверяет запрос и выполняет транзакцию создания заказа.
// Запрос отклоняется до обращения к хранилищу, если он пуст, содержит
// неположительные количества или один товар дважды. На успехе заказ,
// его позиции и списания остатков становятся видимыми одновременно;
// на любой ошибке состояние хранилища не меняется.
func (s *Service) CreateOrder(ctx context.Context, req domain.NewOrderRequest) (domain.Order, error) {
	start := time.Now()

	if errs := req.ValidateInvariants(); len(errs) > 0 {
		s.recordRejected(metrics.RejectReasonValidation, start)
		return domain.Order{}, errors.New(joinErrors(errs))
	}

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		reason := rejectReason(err)
		s.recordRejected(reason, start)
		s.logger.WithError(err).WithFields(log.Fields{
			"customer_id": req.CustomerID,
			"lines":       len(req.Lines),
			"reason":      reason,
		}).Warn("order creation failed")
		return domain.Order{}, err
	}

	var units int64
	for _, item := range order.Items {
		units += int64(item.Quantity)
	}
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(len(order.Items), units, time.Since(start))
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"total_amount": order.TotalAmount.StringFixed(2),
		"items":        len(order.Items),
	}).Info("order created")

	return order, nil
}

// GetOrder возвращает заказ с позициями.
func (s *Service) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// SetOrderStatus переводит заказ в новый статус из допустимого множества.
func (s *Service) SetOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	if err := s.orders.SetStatus(ctx, id, status); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": id,
			"status":   string(status),
		}).Warn("order status update failed")
		return err
	}
	return nil
}

// CustomerOrderHistory возвращает историю заказов покупателя.
// Чтение без побочных эффектов; повторный вызов без промежуточных
// записей возвращает идентичный результат.
func (s *Service) CustomerOrderHistory(ctx context.Context, customerID int64) ([]domain.HistoryEntry, error) {
	entries, err := s.orders.HistoryByCustomer(ctx, customerID)
	if err != nil {
		s.logger.WithError(err).WithField("customer_id", customerID).Error("failed to load order history")
		return nil, err
	}
	return entries, nil
}

// TopSellingProducts возвращает бестселлеры по суммарному проданному количеству.
func (s *Service) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	sales, err := s.orders.TopSellingProducts(ctx, limit)
	if err != nil {
		s.logger.WithError(err).WithField("limit", limit).Error("failed to load top selling products")
		return nil, err
	}
	return sales, nil
}

func (s *Service) recordRejected(reason string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason, time.Since(start))
	}
}

// rejectReason классифицирует ошибку хранилища для лейбла метрики.
func rejectReason(err error) string {
	switch {
	case domain.IsInsufficientStock(err):
		return metrics.RejectReasonInsufficientStock
	case errors.Is(err, domain.ErrUnknownReference):
		return metrics.RejectReasonUnknownReference
	case errors.Is(err, domain.ErrConstraintViolation):
		return metrics.RejectReasonConstraint
	case errors.Is(err, domain.ErrConnectivity):
		return metrics.RejectReasonConnectivity
	default:
		return metrics.RejectReasonInternal
	}
}

func joinErrors(errs []error) string {
	builder := strings.Builder{}
	for i, err := range errs {
		builder.WriteString(err.Error())
		if i < len(errs)-1 {
			builder.WriteString("; ")
		}
	}
	return builder.String()
}
