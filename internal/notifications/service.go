package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes the caller's email history.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*NotificationList, error)
}

type service struct {
	repo Repository
}

// NotificationDTO is one logged email.
type NotificationDTO struct {
	ID        uuid.UUID                `json:"id"`
	Type      enums.NotificationType   `json:"type"`
	OrderID   *uuid.UUID               `json:"order_id,omitempty"`
	Subject   string                   `json:"subject"`
	Status    enums.NotificationStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
}

// NotificationList is one cursor page of logged emails.
type NotificationList = pagination.Page[NotificationDTO]

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*NotificationList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	page := pagination.BuildPage(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	items := make([]NotificationDTO, 0, len(page.Items))
	for _, n := range page.Items {
		items = append(items, NotificationDTO{
			ID:        n.ID,
			Type:      n.Type,
			OrderID:   n.OrderID,
			Subject:   n.Subject,
			Status:    n.Status,
			CreatedAt: n.CreatedAt,
		})
	}
	return &NotificationList{Items: items, Cursor: page.Cursor}, nil
}
