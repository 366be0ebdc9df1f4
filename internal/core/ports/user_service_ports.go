package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type UserService interface {
	Register(ctx context.Context, platformID int64, username string) (*domain.User, error)
	GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error)
	Page(ctx context.Context, page, size int) ([]*domain.User, int, error)
}

type AdminService interface {
	IsAdmin(ctx context.Context, platformID int64) (bool, error)
	List(ctx context.Context) ([]*domain.Admin, error)
	Add(ctx context.Context, admin domain.Admin) error
	Remove(ctx context.Context, platformID int64) error
}
