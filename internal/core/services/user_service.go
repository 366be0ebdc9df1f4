package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type UserService struct {
	repo ports.UserRepository
	mu   sync.Mutex
}

func NewUserService(repo ports.UserRepository) ports.UserService {
	return &UserService{
		repo: repo,
	}
}

// Register returns the stored user, creating it on first contact.
func (s *UserService) Register(ctx context.Context, platformID int64, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetByPlatformID(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user = &domain.User{
		PlatformID:   platformID,
		Username:     username,
		RegisteredAt: time.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	user, err := s.repo.GetByPlatformID(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Page returns one 1-based page of users and the total page count.
func (s *UserService) Page(ctx context.Context, page, size int) ([]*domain.User, int, error) {
	if size < 1 {
		size = 10
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	pages := (len(users) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(users) {
		end = len(users)
	}
	return users[start:end], pages, nil
}
