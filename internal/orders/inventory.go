package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type variantRestocker struct {
	products *product.Repository
	logg     *logger.Logger
}

// NewInventoryReleaser restocks variant-addressed items. Legacy items carry no tracked stock.
// logg may be nil.
func NewInventoryReleaser(products *product.Repository, logg *logger.Logger) (InventoryReleaser, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return variantRestocker{products: products, logg: logg}, nil
}

func (r variantRestocker) Release(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	repo := r.products.WithTx(tx)
	for _, item := range items {
		if item.VariantID == nil || item.Quantity <= 0 {
			continue
		}
		ok, err := repo.Restock(ctx, *item.VariantID, item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock variant")
		}
		if ok {
			continue
		}
		if item.Size != "" && item.Color != "" {
			ok, err = repo.RestockSelection(ctx, item.ProductID, item.Size, item.Color, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock selection")
			}
		}
		if !ok {
			r.warn(ctx, item)
		}
	}
	return nil
}

// warn records units that had nowhere to go: the product or its size/color was removed.
func (r variantRestocker) warn(ctx context.Context, item models.OrderItem) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"productId": item.ProductID.String(),
		"sku":       item.SKU,
		"quantity":  item.Quantity,
	})
	r.logg.Warn(ctx, "inventory.release_unmatched")
}
