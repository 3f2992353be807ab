package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AdminCreateProduct handles catalog creation.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial catalog update.
func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// GetProduct returns a single catalog entry.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description,omitempty"`
	UnitPriceCents  int64   `json:"unit_price_cents" validate:"min=0"`
	DiscountPercent string  `json:"discount_percent"`
	Stock           int     `json:"stock" validate:"min=0"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

func (p createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	discount := decimal.Zero
	if p.DiscountPercent != "" {
		parsed, err := parseDiscount(p.DiscountPercent)
		if err != nil {
			return productsvc.CreateProductInput{}, err
		}
		discount = parsed
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return productsvc.CreateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		UnitPriceCents:  p.UnitPriceCents,
		DiscountPercent: discount,
		Stock:           p.Stock,
		IsActive:        active,
	}, nil
}

type updateProductRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description     *string `json:"description,omitempty"`
	UnitPriceCents  *int64  `json:"unit_price_cents,omitempty" validate:"omitempty,min=0"`
	DiscountPercent *string `json:"discount_percent,omitempty"`
	Stock           *int    `json:"stock,omitempty" validate:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

func (p updateProductRequest) toUpdateInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:           p.Name,
		Description:    p.Description,
		UnitPriceCents: p.UnitPriceCents,
		Stock:          p.Stock,
		IsActive:       p.IsActive,
	}
	if p.DiscountPercent != nil {
		parsed, err := parseDiscount(*p.DiscountPercent)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.DiscountPercent = &parsed
	}
	return input, nil
}

func parseDiscount(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "discount_percent must be a decimal number")
	}
	return value, nil
}
