package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNilError(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("Dump(nil) = %+v, want zero value", d)
	}
}

func TestDumpWalksChainAndCode(t *testing.T) {
	inner := New(CodeDependency, "query failed")
	outer := fmt.Errorf("loading wallet: %w", inner)

	d := Dump(outer)
	if d.Code != CodeDependency {
		t.Fatalf("code = %s, want %s", d.Code, CodeDependency)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("chain has %d entries, want 2: %v", len(d.Chain), d.Chain)
	}
	if d.TopMessage != outer.Error() {
		t.Fatalf("top message = %q", d.TopMessage)
	}
}

func TestDumpSurfacesPgxDriverDetail(t *testing.T) {
	cause := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "skus_name_key",
		TableName:      "skus",
		ColumnName:     "name",
		Detail:         "Key (name)=(Widget) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(fmt.Errorf("creating sku: %w", cause))
	if d.PGCode != "23505" || d.PGConstraint != "skus_name_key" {
		t.Fatalf("pgx fields not surfaced: %+v", d)
	}
	if d.PGTable != "skus" || d.PGColumn != "name" {
		t.Fatalf("pgx table detail not surfaced: %+v", d)
	}
}

func TestDumpSurfacesPqDriverDetail(t *testing.T) {
	cause := &pq.Error{
		Code:       "23503",
		Constraint: "order_items_order_id_fkey",
		Table:      "order_items",
		Detail:     "Key (order_id) is not present in table orders.",
	}
	d := Dump(fmt.Errorf("inserting item: %w", cause))
	if d.PGCode != "23503" || d.PGConstraint != "order_items_order_id_fkey" {
		t.Fatalf("pq fields not surfaced: %+v", d)
	}
	if d.PGTable != "order_items" {
		t.Fatalf("pq table not surfaced: %+v", d)
	}
}
