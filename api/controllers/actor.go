package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func requireUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func requireActor(r *http.Request) (orders.Actor, error) {
	userID, err := requireUserID(r)
	if err != nil {
		return orders.Actor{}, err
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "role context missing")
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}
