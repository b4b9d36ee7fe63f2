// Package catalog реализует операции над покупателями и товарами.
package catalog

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Service — сервис справочников: покупатели и каталог товаров.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	logger    *log.Entry
}

func NewService(customers domain.CustomerRepository, products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{
		customers: customers,
		products:  products,
		logger:    logger,
	}
}

// AddCustomer проверяет инварианты и регистрирует покупателя.
func (s *Service) AddCustomer(ctx context.Context, c domain.Customer) (int64, error) {
	if errs := c.ValidateInvariants(); len(errs) > 0 {
		return 0, errors.New(joinErrors(errs))
	}
	id, err := s.customers.Add(ctx, c)
	if err != nil {
		s.logger.WithError(err).WithField("email", c.Email).Warn("failed to add customer")
		return 0, err
	}
	s.logger.WithFields(log.Fields{"customer_id": id, "email": c.Email}).Info("customer added")
	return id, nil
}

// GetCustomer возвращает покупателя по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return s.customers.Get(ctx, id)
}

// DeleteCustomer удаляет покупателя; его заказы удаляются каскадно.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		s.logger.WithError(err).WithField("customer_id", id).Warn("failed to delete customer")
		return err
	}
	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}

// AddProduct проверяет инварианты и добавляет товар в каталог.
func (s *Service) AddProduct(ctx context.Context, p domain.Product) (int64, error) {
	if errs := p.ValidateInvariants(); len(errs) > 0 {
		return 0, errors.New(joinErrors(errs))
	}
	id, err := s.products.Add(ctx, p)
	if err != nil {
		s.logger.WithError(err).WithField("name", p.Name).Warn("failed to add product")
		return 0, err
	}
	s.logger.WithFields(log.Fields{"product_id": id, "name": p.Name}).Info("product added")
	return id, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

// SetProductStock выставляет абсолютный остаток товара.
func (s *Service) SetProductStock(ctx context.Context, id int64, quantity int32) error {
	if quantity < 0 {
		return domain.ErrStockNegative
	}
	if err := s.products.SetStock(ctx, id, quantity); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("failed to set product stock")
		return err
	}
	return nil
}

// DeleteProduct удаляет товар. Товар, на который ссылаются позиции
// заказов, удалить нельзя.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("failed to delete product")
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
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
