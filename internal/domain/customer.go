package domain

import (
	"strings"
	"time"
)

// Customer описывает покупателя магазина.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	// Email уникален и обязателен; уникальность обеспечивает хранилище.
	Email string
	// Phone — необязательное поле.
	Phone            string
	RegistrationDate time.Time
}

// ValidateInvariants проверяет базовые инварианты покупателя и возвращает список замечаний.
func (c *Customer) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(c.FirstName) == "" {
		errs = append(errs, ErrFirstNameRequired)
	}
	if strings.TrimSpace(c.LastName) == "" {
		errs = append(errs, ErrLastNameRequired)
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, ErrEmailRequired)
	}

	return errs
}

// FullName возвращает имя и фамилию одной строкой для логов и отчётов.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
