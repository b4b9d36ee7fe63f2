package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
type Product struct {
	ID int64
	// Name уникально и обязательно; уникальность обеспечивает хранилище.
	Name string
	// Description — необязательное поле.
	Description string
	// Price хранится как DECIMAL(10,2); арифметика только через decimal, без float.
	Price decimal.Decimal
	// StockQuantity неотрицателен в любой момент, включая середину транзакции.
	StockQuantity int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if p.StockQuantity < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
