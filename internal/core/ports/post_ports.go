package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

type CreatePostInput struct {
	Title      string
	Text       string
	ImageRef   string
	ButtonText string
	ButtonURL  string
	AdminID    int64
}

type PostService interface {
	Publish(ctx context.Context, input CreatePostInput) (*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context) ([]*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

type BroadcastProgress func(sent, total int)

type BroadcastService interface {
	Broadcast(ctx context.Context, post *domain.Post, progress BroadcastProgress) (*domain.BroadcastReport, error)
	BroadcastAsync(ctx context.Context, post *domain.Post, notifyChatID int64)
}
