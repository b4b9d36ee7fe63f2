package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: pgCodeForeignKeyViolation, ConstraintName: "orders_customer_id_fkey"},
			want: domain.ErrUnknownReference,
		},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: pgCodeUniqueViolation, ConstraintName: "customers_email_key"},
			want: domain.ErrConstraintViolation,
		},
		{
			name: "check violation",
			err:  &pgconn.PgError{Code: pgCodeCheckViolation, ConstraintName: "products_stock_quantity_check"},
			want: domain.ErrConstraintViolation,
		},
		{
			name: "connection exception class",
			err:  &pgconn.PgError{Code: "08006"},
			want: domain.ErrConnectivity,
		},
		{
			name: "bad connection",
			err:  driver.ErrBadConn,
			want: domain.ErrConnectivity,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: domain.ErrConnectivity,
		},
		{
			name: "wrapped pg error",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgCodeForeignKeyViolation}),
			want: domain.ErrUnknownReference,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapStoreError("test op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMapStoreError_Passthrough(t *testing.T) {
	if err := mapStoreError("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	plain := errors.New("boom")
	got := mapStoreError("op", plain)
	if !errors.Is(got, plain) {
		t.Fatalf("expected original error preserved, got %v", got)
	}
	for _, sentinel := range []error{
		domain.ErrUnknownReference,
		domain.ErrConstraintViolation,
		domain.ErrConnectivity,
	} {
		if errors.Is(got, sentinel) {
			t.Fatalf("plain error must not map to %v", sentinel)
		}
	}
}

func TestViolationPredicates(t *testing.T) {
	unique := &pgconn.PgError{Code: pgCodeUniqueViolation}
	fk := &pgconn.PgError{Code: pgCodeForeignKeyViolation}

	if !isUniqueViolation(unique) || isUniqueViolation(fk) {
		t.Fatal("isUniqueViolation misclassified")
	}
	if !isForeignKeyViolation(fk) || isForeignKeyViolation(unique) {
		t.Fatal("isForeignKeyViolation misclassified")
	}
	if isUniqueViolation(errors.New("boom")) || isForeignKeyViolation(nil) {
		t.Fatal("non-pg errors must not match")
	}
}
