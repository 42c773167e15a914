package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataStatuses(t *testing.T) {
	want := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodeStockInsufficient: http.StatusConflict,
		CodeStateConflict:     http.StatusUnprocessableEntity,
		CodeCouponInvalid:     http.StatusUnprocessableEntity,
		CodeIdempotency:       http.StatusConflict,
		CodeRateLimit:         http.StatusTooManyRequests,
		CodeInternal:          http.StatusInternalServerError,
		CodeDependency:        http.StatusServiceUnavailable,
	}
	for code, status := range want {
		assert.Equal(t, status, MetadataFor(code).HTTPStatus, code)
	}
	assert.Len(t, codes, len(want))
}

func TestMetadataDetailsAndRetry(t *testing.T) {
	assert.True(t, MetadataFor(CodeStockInsufficient).DetailsAllowed)
	assert.True(t, MetadataFor(CodeCouponInvalid).DetailsAllowed)
	assert.False(t, MetadataFor(CodeUnauthorized).DetailsAllowed)
	assert.False(t, MetadataFor(CodeInternal).DetailsAllowed)

	assert.True(t, MetadataFor(CodeDependency).Retryable)
	assert.False(t, MetadataFor(CodeValidation).Retryable)

	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_UNKNOWN"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "load cart")

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: load cart", wrapped.Error())
	assert.Nil(t, New(CodeValidation, "x").Details())
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeForbidden, "not your order")
	outer := fmt.Errorf("orders: %w", inner)

	got := As(outer)
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
	assert.True(t, IsCode(outer, CodeForbidden))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeForbidden))
	assert.Nil(t, As(nil))

	var missing *Error
	assert.Equal(t, CodeInternal, missing.Code())
}

func TestStockInsufficient(t *testing.T) {
	err := StockInsufficient(3)
	assert.Equal(t, CodeStockInsufficient, err.Code())
	assert.Equal(t, "only 3 left in stock", err.Message())
	assert.Equal(t, map[string]any{"available": 3}, err.Details())
}

func TestCouponInvalid(t *testing.T) {
	err := CouponInvalid("expired", "This coupon has expired")
	assert.True(t, IsCode(err, CodeCouponInvalid))
	assert.Equal(t, map[string]any{"reason": "expired"}, err.Details())
}
