package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type refundRequestBody struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type refundDecisionBody struct {
	SellerComment string `json:"seller_comment" validate:"max=1000"`
}

// RefundRequest files a refund for a delivered order owned by the caller.
func RefundRequest(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
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

		var payload refundRequestBody
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Request(r.Context(), actor, identifier, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// RefundsList returns the caller's refund requests.
func RefundsList(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
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

func AdminRefundsList(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminRefundApprove approves a pending refund and marks the order refunded.
func AdminRefundApprove(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, true)
}

// AdminRefundReject declines a pending refund.
func AdminRefundReject(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, false)
}

func refundDecision(svc refunds.Service, logg *logger.Logger, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refundID, err := validators.URLParamUUID(r, "refundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload refundDecisionBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var refund *refunds.RefundDTO
		if approve {
			refund, err = svc.Approve(r.Context(), actor, refundID, payload.SellerComment)
		} else {
			refund, err = svc.Reject(r.Context(), actor, refundID, payload.SellerComment)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refund)
	}
}
