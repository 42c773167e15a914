package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"order_number": "ORD-1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"order_number":"ORD-1"}}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    pkgerrors.Code
		message string
		details bool
	}{
		{
			name:    "validation keeps message and details",
			err:     pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "email"}),
			status:  http.StatusBadRequest,
			code:    pkgerrors.CodeValidation,
			message: "bad input",
			details: true,
		},
		{
			name:    "stock carries available",
			err:     fmt.Errorf("add item: %w", pkgerrors.StockInsufficient(2)),
			status:  http.StatusConflict,
			code:    pkgerrors.CodeStockInsufficient,
			message: "only 2 left in stock",
			details: true,
		},
		{
			name:    "unauthorized hides details",
			err:     pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired").WithDetails(map[string]any{"jti": "x"}),
			status:  http.StatusUnauthorized,
			code:    pkgerrors.CodeUnauthorized,
			message: "token expired",
		},
		{
			name:    "untyped errors become internal",
			err:     errors.New("connection refused"),
			status:  http.StatusInternalServerError,
			code:    pkgerrors.CodeInternal,
			message: "internal server error",
		},
		{
			name:    "dependency keeps the public message",
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "stripe unreachable"),
			status:  http.StatusServiceUnavailable,
			code:    pkgerrors.CodeDependency,
			message: "dependency unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, string(tc.code), apiErr.Code)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.details, apiErr.Details != nil)
		})
	}
}
