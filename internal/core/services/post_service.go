package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type postService struct {
	repo ports.PostRepository
	now  func() time.Time
}

func NewPostService(repo ports.PostRepository) ports.PostService {
	return &postService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *postService) Publish(ctx context.Context, input ports.CreatePostInput) (*domain.Post, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title", domain.ErrEmptyText)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: post text", domain.ErrEmptyText)
	}
	if input.ButtonURL != "" {
		if err := domain.ValidateButtonURL(input.ButtonURL); err != nil {
			return nil, err
		}
	}

	now := s.now()
	post := &domain.Post{
		ID:         domain.NewPostID(now),
		Title:      input.Title,
		Text:       input.Text,
		ImageRef:   input.ImageRef,
		ButtonText: input.ButtonText,
		ButtonURL:  input.ButtonURL,
		CreatedAt:  now,
		AdminID:    input.AdminID,
	}
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id string) (*domain.Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *postService) List(ctx context.Context) ([]*domain.Post, error) {
	return s.repo.List(ctx)
}

func (s *postService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
