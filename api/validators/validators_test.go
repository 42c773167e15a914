package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type lineInput struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type orderInput struct {
	Email string      `json:"email" validate:"required,email"`
	Items []lineInput `json:"items" validate:"required,min=1,dive"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	var in orderInput
	err := DecodeJSONBody(jsonRequest(`{"email":"a@b.co","items":[{"product_id":"7d3c1f0e-3b1a-4c8e-9f2a-1b2c3d4e5f60","quantity":2}]}`), &in)
	require.NoError(t, err)
	assert.Equal(t, 2, in.Items[0].Quantity)
}

func TestDecodeJSONBodyRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"syntax":        `{"email":`,
		"unknown field": `{"email":"a@b.co","items":[],"extra":1}`,
		"trailing":      `{"email":"a@b.co"} {}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var in orderInput
			err := DecodeJSONBody(jsonRequest(body), &in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, "invalid request body", typed.Message())
		})
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var in orderInput
	err := DecodeJSONBody(jsonRequest(`{"email":"nope","items":[{"product_id":"x","quantity":0}]}`), &in)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be a UUID", details["items[0].product_id"])
	assert.Equal(t, "must be greater than 0", details["items[0].quantity"])
}

func TestParseUUIDParam(t *testing.T) {
	route := func(v string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("id", v)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
	}
	id, err := ParseUUIDParam(route(" 7d3c1f0e-3b1a-4c8e-9f2a-1b2c3d4e5f60 "), "id")
	require.NoError(t, err)
	assert.Equal(t, "7d3c1f0e-3b1a-4c8e-9f2a-1b2c3d4e5f60", id.String())

	_, err = ParseUUIDParam(route("abc"), "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 20, false},
		{"limit=5", 5, false},
		{"limit=abc", 0, true},
		{"limit=0", 0, true},
		{"limit=101", 0, true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		got, err := ParseQueryInt(r, "limit", 20, 1, 100)
		if tc.wantErr {
			assert.Error(t, err, tc.query)
			continue
		}
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 0))
	assert.Equal(t, "hé", SanitizeString(" héllo", 2))
}
