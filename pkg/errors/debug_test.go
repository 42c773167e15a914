package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestDumpDecodesPgxError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key", TableName: "coupons", Message: "duplicate key"}
	err := Wrap(CodeConflict, fmt.Errorf("insert coupon: %w", pgErr), "coupon code taken")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "coupons_code_key", d.PGConstraint)
	assert.Len(t, d.Chain, 3)

	fields := d.Fields()
	assert.Equal(t, "coupons", fields["pg_table"])
	assert.NotContains(t, fields, "pg_column")
}

func TestDumpDecodesLibPqError(t *testing.T) {
	d := Dump(fmt.Errorf("reserve stock: %w", &pq.Error{Code: "40001", Message: "serialization failure"}))
	assert.Equal(t, "40001", d.PGCode)
	assert.Empty(t, d.Code)
	assert.NotContains(t, d.Fields(), "error_code")
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
