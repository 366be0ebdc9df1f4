package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type UserRepository interface {
	GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type AdminRepository interface {
	List(ctx context.Context) ([]*domain.Admin, error)
	Add(ctx context.Context, admin *domain.Admin) error
	Remove(ctx context.Context, platformID int64) error
}
