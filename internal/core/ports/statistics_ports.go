package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type StatisticsRepository interface {
	Load(ctx context.Context) ([]domain.StatisticsRow, error)
	Replace(ctx context.Context, rows []domain.StatisticsRow) error
	Clear(ctx context.Context) error
}

type StatisticsService interface {
	Recompute(ctx context.Context) ([]domain.StatisticsRow, error)
	RecomputeAsync(ctx context.Context)
	Decrement(ctx context.Context, responses []*domain.SurveyResponse) error
	Grouped(ctx context.Context) ([]domain.QuestionStats, error)
}
