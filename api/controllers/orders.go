package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/reports"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createOrderRequest struct {
	PaymentMethod       string `json:"payment_method" validate:"required,max=64"`
	ShippingAddress     string `json:"shipping_address" validate:"required,max=500"`
	ShippingZipCode     string `json:"shipping_zip_code" validate:"required,zipcode"`
	ShippingProvince    string `json:"shipping_province" validate:"required,max=120"`
	ShippingPhoneNumber string `json:"shipping_phone_number" validate:"required,phone"`
}

func (p createOrderRequest) toInput() orders.CreateOrderInput {
	return orders.CreateOrderInput{
		PaymentMethod:       p.PaymentMethod,
		ShippingAddress:     p.ShippingAddress,
		ShippingZipCode:     p.ShippingZipCode,
		ShippingProvince:    p.ShippingProvince,
		ShippingPhoneNumber: p.ShippingPhoneNumber,
	}
}

// OrderCreate checks out the caller's cart.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), actor, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrdersList returns the caller's orders, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// OrderCancel cancels an order on behalf of its owner or an admin.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identifier, err := validators.URLParam(r, "orderIdentifier")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), actor, identifier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderStatuses lists every lifecycle status with its customer label.
func OrderStatuses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, orders.Statuses())
	}
}

// OrderInvoice streams the PDF invoice for the caller's order.
func OrderInvoice(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identifier, err := validators.URLParam(r, "orderIdentifier")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Invoice(r.Context(), actor, identifier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteFile(w, doc.ContentType, doc.FileName, doc.Data)
	}
}
