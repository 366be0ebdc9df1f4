package services

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

// AdminService combines the admin ids configured at startup with the Admins table.
// Configured admins cannot be removed from chat.
type AdminService struct {
	repo      ports.AdminRepository
	bootstrap map[int64]struct{}
}

func NewAdminService(repo ports.AdminRepository, bootstrapIDs []int64) ports.AdminService {
	ids := make(map[int64]struct{}, len(bootstrapIDs))
	for _, id := range bootstrapIDs {
		ids[id] = struct{}{}
	}
	return &AdminService{
		repo:      repo,
		bootstrap: ids,
	}
}

func (s *AdminService) IsAdmin(ctx context.Context, platformID int64) (bool, error) {
	if _, ok := s.bootstrap[platformID]; ok {
		return true, nil
	}
	admins, err := s.repo.List(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range admins {
		if a.PlatformID == platformID {
			return true, nil
		}
	}
	return false, nil
}

func (s *AdminService) List(ctx context.Context) ([]*domain.Admin, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	listed := make(map[int64]struct{}, len(stored))
	var out []*domain.Admin
	for _, a := range stored {
		listed[a.PlatformID] = struct{}{}
		out = append(out, a)
	}
	for _, id := range slices.Sorted(maps.Keys(s.bootstrap)) {
		if _, ok := listed[id]; !ok {
			out = append(out, &domain.Admin{PlatformID: id, Name: "configured", Description: "from ADMIN_IDS"})
		}
	}
	return out, nil
}

func (s *AdminService) Add(ctx context.Context, admin domain.Admin) error {
	if admin.PlatformID == 0 {
		return fmt.Errorf("%w: admin id", domain.ErrEmptyText)
	}
	isAdmin, err := s.IsAdmin(ctx, admin.PlatformID)
	if err != nil {
		return err
	}
	if isAdmin {
		return domain.ErrAdminExists
	}
	return s.repo.Add(ctx, &admin)
}

func (s *AdminService) Remove(ctx context.Context, platformID int64) error {
	if _, ok := s.bootstrap[platformID]; ok {
		return fmt.Errorf("%w: %d is configured at startup", domain.ErrAdminNotFound, platformID)
	}
	return s.repo.Remove(ctx, platformID)
}
