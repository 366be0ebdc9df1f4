package table

import (
	"context"
	"fmt"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type postRepository struct {
	store ports.TableStore
	table string
}

func NewPostRepository(store ports.TableStore, table string) ports.PostRepository {
	return &postRepository{
		store: store,
		table: table,
	}
}

func (r *postRepository) Save(ctx context.Context, post *domain.Post) error {
	row := []string{
		post.ID,
		post.Title,
		post.Text,
		post.ImageRef,
		post.ButtonText,
		post.ButtonURL,
		formatTime(post.CreatedAt),
		formatInt(post.AdminID),
	}
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	posts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (r *postRepository) List(ctx context.Context) ([]*domain.Post, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var posts []*domain.Post
	for _, row := range rows {
		if cell(row, 0) == "" {
			continue
		}
		adminID, _ := cellInt(row, 7)
		posts = append(posts, &domain.Post{
			ID:         cell(row, 0),
			Title:      cell(row, 1),
			Text:       cell(row, 2),
			ImageRef:   cell(row, 3),
			ButtonText: cell(row, 4),
			ButtonURL:  cell(row, 5),
			CreatedAt:  cellTime(row, 6),
			AdminID:    adminID,
		})
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return fmt.Errorf("failed to read posts: %w", err)
	}
	for i, row := range rows {
		if cell(row, 0) == id {
			if err := r.store.DeleteRow(ctx, r.table, i); err != nil {
				return fmt.Errorf("failed to delete post: %w", err)
			}
			return nil
		}
	}
	return domain.ErrPostNotFound
}
