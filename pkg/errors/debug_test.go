package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpCollectsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_refunds_order_id",
		TableName:      "refunds",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("insert refund: %w", pgErr), "refund already exists").
		WithDetails(map[string]any{"step": "insert_refund"})

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code got %s", d.Code)
	}
	if d.Step != "insert_refund" {
		t.Fatalf("expected step insert_refund got %q", d.Step)
	}
	if d.PGCode != "23505" || d.PGConstraint != "ux_refunds_order_id" || d.PGTable != "refunds" {
		t.Fatalf("unexpected pg fields: %+v", d)
	}
	if len(d.Chain) < 3 {
		t.Fatalf("expected full unwrap chain, got %v", d.Chain)
	}

	fields := d.LogFields()
	if fields["pg_constraint"] != "ux_refunds_order_id" || fields["error_code"] != string(CodeConflict) {
		t.Fatalf("unexpected log fields: %v", fields)
	}
}

func TestDumpPlainErrorOmitsEmptyLogFields(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).LogFields()
	if fields["error"] != "boom" {
		t.Fatalf("expected top message, got %v", fields["error"])
	}
	for _, key := range []string{"error_code", "step", "pg_code", "pg_constraint"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("expected %s to be omitted", key)
		}
	}
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected zero dump for nil error, got %+v", d)
	}
}
