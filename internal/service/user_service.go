package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
)

type UserService interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Roles(ctx context.Context, userID string) ([]string, error)
}

type userService struct {
	ur repository.UserRoleRepository
}

func NewUserService(ur repository.UserRoleRepository) UserService {
	return &userService{
		ur: ur,
	}
}

func (s *userService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		err := errors.New("User not found")
		slog.Info(err.Error())
		return false, err
	}

	ok, err := s.ur.HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("Error checking user role")
	}
	return ok, nil
}

func (s *userService) Roles(ctx context.Context, userID string) ([]string, error) {
	userRoles, err := s.ur.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting user roles")
	}

	roles := make([]string, 0, len(userRoles))
	for _, r := range userRoles {
		roles = append(roles, r.Role)
	}
	return roles, nil
}
