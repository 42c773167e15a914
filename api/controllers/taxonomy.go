package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CategoryList returns categories with their subcategories. Staff may pass include_inactive=true.
func CategoryList(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "taxonomy service unavailable"))
			return
		}

		includeInactive := middleware.RoleFromContext(ctx).IsStaff() && r.URL.Query().Get("include_inactive") == "true"
		categories, err := svc.ListCategories(ctx, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func ColorList(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "taxonomy service unavailable"))
			return
		}

		colors, err := svc.ListColors(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"colors": colors})
	}
}

func AdminCreateCategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createTaxon(svc, logg, taxonomy.Service.CreateCategory)
}

func AdminUpdateCategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateTaxon(svc, logg, "categoryId", taxonomy.Service.UpdateCategory)
}

// AdminDeleteCategory removes the category and its subcategories.
func AdminDeleteCategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteTaxon(svc, logg, "categoryId", taxonomy.Service.DeleteCategory)
}

func AdminCreateSubcategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createTaxon(svc, logg, taxonomy.Service.CreateSubcategory)
}

func AdminUpdateSubcategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateTaxon(svc, logg, "subcategoryId", taxonomy.Service.UpdateSubcategory)
}

func AdminDeleteSubcategory(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteTaxon(svc, logg, "subcategoryId", taxonomy.Service.DeleteSubcategory)
}

func AdminCreateColor(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return createTaxon(svc, logg, taxonomy.Service.CreateColor)
}

func AdminUpdateColor(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return updateTaxon(svc, logg, "colorId", taxonomy.Service.UpdateColor)
}

func AdminDeleteColor(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteTaxon(svc, logg, "colorId", taxonomy.Service.DeleteColor)
}

func createTaxon[In any, Out any](svc taxonomy.Service, logg *logger.Logger, create func(taxonomy.Service, context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "taxonomy service unavailable"))
			return
		}

		var body In
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := create(svc, ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func updateTaxon[In any, Out any](svc taxonomy.Service, logg *logger.Logger, param string, update func(taxonomy.Service, context.Context, uuid.UUID, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "taxonomy service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body In
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := update(svc, ctx, id, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func deleteTaxon(svc taxonomy.Service, logg *logger.Logger, param string, remove func(taxonomy.Service, context.Context, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "taxonomy service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := remove(svc, ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
