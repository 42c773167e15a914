package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID, err := middleware.RequireUserUUID(r.Context())
	if err != nil {
		return internalorders.Actor{}, err
	}
	return internalorders.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}, nil
}

func buildAdminFilters(r *http.Request) (internalorders.AdminFilters, error) {
	query := r.URL.Query()
	var filters internalorders.AdminFilters

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, invalidFilter("status", err)
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, invalidFilter("payment_status", err)
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(query.Get("payment_method")); raw != "" {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return filters, invalidFilter("payment_method", err)
		}
		filters.PaymentMethod = &method
	}
	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, invalidFilter("user_id", err)
		}
		filters.UserID = &id
	}
	filters.Query = validators.SanitizeString(query.Get("q"), 100)
	return filters, nil
}

func invalidFilter(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
}
