package usecase

import (
	"context"
	"errors"

	"advisor-booking/internal/delivery/http/middleware"
	"advisor-booking/internal/domain/entity"

	"github.com/google/uuid"
)

var ErrUnauthenticated = errors.New("user not found in context")

type caller struct {
	UserID uuid.UUID
	Role   string
}

func (c caller) IsAdmin() bool {
	return c.Role == entity.RoleAdmin
}

func (c caller) IsAdvisor() bool {
	return c.Role == entity.RoleAdvisor
}

func callerFromContext(ctx context.Context) (caller, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return caller{}, ErrUnauthenticated
	}
	role, _ := middleware.GetRoleFromContext(ctx)
	return caller{UserID: userID, Role: role}, nil
}
