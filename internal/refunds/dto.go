package refunds

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	maxReasonLength  = 1000
	maxCommentLength = 1000
)

// RefundDTO is the refund payload returned to clients.
type RefundDTO struct {
	ID              uuid.UUID          `json:"id"`
	OrderID         uuid.UUID          `json:"order_id"`
	OrderIdentifier string             `json:"order_identifier,omitempty"`
	UserEmail       string             `json:"user_email,omitempty"`
	Reason          string             `json:"reason"`
	Status          enums.RefundStatus `json:"status"`
	SellerComment   *string            `json:"seller_comment,omitempty"`
	ResolvedDate    *time.Time         `json:"resolved_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RefundList is one cursor page of refunds.
type RefundList = pagination.Page[RefundDTO]

// NewRefundDTO maps a persisted refund into its transport shape.
func NewRefundDTO(refund *models.Refund) *RefundDTO {
	if refund == nil {
		return nil
	}
	dto := &RefundDTO{
		ID:            refund.ID,
		OrderID:       refund.OrderID,
		Reason:        refund.Reason,
		Status:        refund.Status,
		SellerComment: refund.SellerComment,
		ResolvedDate:  refund.ResolvedDate,
		CreatedAt:     refund.CreatedAt,
	}
	if refund.Order != nil {
		dto.OrderIdentifier = refund.Order.OrderIdentifier
		if refund.Order.User != nil {
			dto.UserEmail = refund.Order.User.Email
		}
	}
	return dto
}

func newRefundList(rows []models.Refund, limit int) *RefundList {
	page := pagination.BuildPage(rows, limit, func(r models.Refund) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	items := make([]RefundDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *NewRefundDTO(&page.Items[i]))
	}
	return &RefundList{Items: items, Cursor: page.Cursor}
}

func normalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "reason is too long").
			WithDetails(map[string]any{"max_length": maxReasonLength})
	}
	return reason, nil
}

func normalizeComment(comment string) (*string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller comment is too long").
			WithDetails(map[string]any{"max_length": maxCommentLength})
	}
	return &comment, nil
}
