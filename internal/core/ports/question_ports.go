package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type QuestionRepository interface {
	Load(ctx context.Context) ([]domain.Question, error)
	Append(ctx context.Context, q domain.Question) error
	Update(ctx context.Context, index int, q domain.Question) error
	Delete(ctx context.Context, index int) error
}

type QuestionListener func(change domain.QuestionChange, set *domain.QuestionSet)

type QuestionService interface {
	Current(ctx context.Context) (*domain.QuestionSet, error)
	Reload(ctx context.Context) (*domain.QuestionSet, error)
	Add(ctx context.Context, q domain.Question) error
	UpdateText(ctx context.Context, index int, text string) error
	UpdateOptions(ctx context.Context, index int, options []domain.Option) error
	Delete(ctx context.Context, index int) error
	Subscribe(listener QuestionListener)
}
