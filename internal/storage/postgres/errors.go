package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Коды SQLSTATE, которые хранилище переводит в доменную таксономию ошибок.
const (
	pgCodeForeignKeyViolation = "23503"
	pgCodeUniqueViolation     = "23505"
	pgCodeCheckViolation      = "23514"
)

// mapStoreError переводит ошибку драйвера в доменную, сохраняя контекст операции.
// Нарушение FK -> ErrUnknownReference, уникальность и CHECK -> ErrConstraintViolation,
// транспортные сбои -> ErrConnectivity. Прочие ошибки оборачиваются как есть.
func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgCodeForeignKeyViolation:
			return fmt.Errorf("%s: constraint %s: %w", op, pgErr.ConstraintName, domain.ErrUnknownReference)
		case pgErr.Code == pgCodeUniqueViolation, pgErr.Code == pgCodeCheckViolation:
			return fmt.Errorf("%s: constraint %s: %w", op, pgErr.ConstraintName, domain.ErrConstraintViolation)
		case strings.HasPrefix(pgErr.Code, "08"):
			// Класс 08 — connection exceptions.
			return fmt.Errorf("%s: %v: %w", op, err, domain.ErrConnectivity)
		}
	}

	if isTransportError(err) {
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrConnectivity)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isTransportError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeUniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeForeignKeyViolation
	}
	return false
}
