package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCapturesChainAndCode(t *testing.T) {
	err := fmt.Errorf("accept order: %w", Wrap(CodeDependency, fmt.Errorf("disk full"), "persist order"))

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if !d.Retryable {
		t.Fatalf("dependency errors are retryable")
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if _, ok := d.Fields()["pg_code"]; ok {
		t.Fatalf("pg fields should be omitted for non-postgres errors")
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey", TableName: "orders"}
	d := Dump(Wrap(CodeDependency, pgErr, "insert order"))

	if d.PGCode != "23505" || d.PGConstraint != "orders_pkey" || d.PGTable != "orders" {
		t.Fatalf("unexpected pg dump %+v", d)
	}
	if d.Fields()["pg_code"] != "23505" {
		t.Fatalf("expected pg_code in fields")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpExtractsLibPQDetails(t *testing.T) {
	d := Dump(fmt.Errorf("save store: %w", &pq.Error{Code: "23503", Constraint: "pickup_orders_store_id_fkey", Table: "pickup_orders"}))
	if d.PGCode != "23503" || d.PGTable != "pickup_orders" {
		t.Fatalf("unexpected pq dump %+v", d.PostgresFields)
	}
}
