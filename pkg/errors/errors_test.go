package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "no product"))
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeNotFound) || IsCode(err, CodeConflict) {
		t.Fatalf("IsCode mismatch")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpSurfacesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "cart_slots_pkey", TableName: "cart_slots"}
	dump := Dump(Wrap(CodeDependency, pgErr, "save slot"))
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if dump.PG == nil || dump.PG.SQLState != "23505" || dump.PG.Table != "cart_slots" {
		t.Fatalf("unexpected pg info %+v", dump.PG)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
	fields := dump.Fields()
	if fields["pg_constraint"] != "cart_slots_pkey" || fields["error_code"] != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected fields %v", fields)
	}

	info, ok := Postgres(fmt.Errorf("load: %w", &pq.Error{Code: "42P01", Table: "cart_slots"}))
	if !ok || info.SQLState != "42P01" || info.Table != "cart_slots" {
		t.Fatalf("unexpected pq info %+v", info)
	}
	if _, ok := Dump(stdErrors.New("plain")).Fields()["pg_code"]; ok {
		t.Fatalf("plain errors should not carry pg fields")
	}
}

func TestFromDBClassifiesSQLState(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{&pgconn.PgError{Code: "23505"}, CodeConflict},
		{&pgconn.PgError{Code: "40001"}, CodeDependency},
		{&pq.Error{Code: "08006"}, CodeDependency},
		{&pq.Error{Code: "57P01"}, CodeDependency},
		{&pgconn.PgError{Code: "42601"}, CodeInternal},
		{stdErrors.New("database is locked"), CodeDependency},
	}
	for _, tc := range cases {
		err := FromDB(tc.err, "save slot")
		if CodeOf(err) != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, CodeOf(err))
		}
		if !stdErrors.Is(err, tc.err) {
			t.Fatalf("cause must stay in the chain")
		}
	}

	if FromDB(nil, "noop") != nil {
		t.Fatalf("nil must stay nil")
	}
	typed := New(CodeNotFound, "gone")
	if FromDB(typed, "load") != error(typed) {
		t.Fatalf("typed errors pass through unchanged")
	}
}

func TestFormattedConstructorsAndDetail(t *testing.T) {
	err := Newf(CodeNotFound, "order %d not found", 77)
	if err.Message() != "order 77 not found" {
		t.Fatalf("unexpected message %q", err.Message())
	}

	wrapped := Wrapf(CodeDependency, stdErrors.New("timeout"), "call %s", "create_order")
	if wrapped.Error() != "DEPENDENCY_ERROR: call create_order: timeout" {
		t.Fatalf("unexpected error %q", wrapped.Error())
	}

	withDetail := New(CodeConflict, "out of stock").WithDetail("product_id", "p1").WithDetail("stock", 0)
	details, ok := withDetail.Details().(map[string]any)
	if !ok || details["product_id"] != "p1" || details["stock"] != 0 {
		t.Fatalf("unexpected details %#v", withDetail.Details())
	}

	replaced := New(CodeConflict, "x").WithDetails([]string{"a"}).WithDetail("k", "v")
	if d, ok := replaced.Details().(map[string]any); !ok || len(d) != 1 {
		t.Fatalf("expected map details to replace other shapes, got %#v", replaced.Details())
	}
}

func TestPublicMessageAndRetryable(t *testing.T) {
	if got := New(CodeValidation, "cart is empty").PublicMessage(); got != "cart is empty" {
		t.Fatalf("validation messages should be exposed, got %q", got)
	}
	if got := New(CodeInternal, "nil pointer").PublicMessage(); got != "internal server error" {
		t.Fatalf("internal messages should be hidden, got %q", got)
	}
	if got := New(CodeNotFound, "").PublicMessage(); got != "resource not found" {
		t.Fatalf("empty messages fall back, got %q", got)
	}

	if !Retryable(fmt.Errorf("wrap: %w", New(CodeDependency, "down"))) {
		t.Fatalf("dependency errors should be retryable")
	}
	if Retryable(New(CodeConflict, "dup")) || Retryable(nil) {
		t.Fatalf("conflicts and nil are not retryable")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors map to internal")
	}
}
