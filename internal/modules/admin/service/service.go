package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/admin/dto"
	ticketRepo "lintas.id/aidesk/internal/modules/ticket/repository"
	userRepo "lintas.id/aidesk/internal/modules/user/repository"
	"lintas.id/aidesk/pkg/apperror"
)

type Service interface {
	ListUsers(ctx context.Context) (*dto.UserListResponse, error)
	// UpdateUserRole changes the target's role. Accounts holding the
	// super_admin role are never modified; the check runs before any write.
	UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, roleName string) (*entity.User, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type adminService struct {
	users   userRepo.UserRepository
	tickets ticketRepo.TicketRepository
}

func NewAdminService(users userRepo.UserRepository, tickets ticketRepo.TicketRepository) Service {
	return &adminService{users: users, tickets: tickets}
}

func (s *adminService) ListUsers(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{Data: users}, nil
}

func (s *adminService) loadTarget(ctx context.Context, targetID uuid.UUID) (*entity.User, error) {
	target, err := s.users.FindByID(ctx, targetID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return target, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, roleName string) (*entity.User, error) {
	if actorID == targetID {
		return nil, apperror.New(403, "cannot change your own role", apperror.ErrForbidden)
	}

	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role.Name == entity.RoleSuperAdmin {
		return nil, apperror.New(403, "super admin accounts cannot be modified", apperror.ErrForbidden)
	}

	role, err := s.users.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(400, "unknown role", apperror.ErrInvalidInput)
		}
		return nil, err
	}

	target.RoleID = &role.ID
	target.Role = *role

	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}

	return target, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return apperror.New(403, "cannot delete your own account", apperror.ErrForbidden)
	}

	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return err
	}

	if target.Role.Name == entity.RoleSuperAdmin {
		return apperror.New(403, "super admin accounts cannot be deleted", apperror.ErrForbidden)
	}

	return s.users.Delete(ctx, targetID.String())
}

func (s *adminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	unread, err := s.tickets.CountUnreadByAdmin(ctx)
	if err != nil {
		return nil, err
	}

	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		Tickets:       byStatus,
		UnreadByAdmin: unread,
		Users:         userCount,
	}, nil
}
