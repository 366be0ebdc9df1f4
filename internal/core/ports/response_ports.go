package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type ResponseRepository interface {
	Save(ctx context.Context, resp *domain.SurveyResponse) error
	HasResponded(ctx context.Context, userID int64) (bool, error)
	ListAll(ctx context.Context) ([]*domain.SurveyResponse, error)
	DeleteByUser(ctx context.Context, userID int64) ([]*domain.SurveyResponse, error)
	Clear(ctx context.Context) error
	// DeleteAnswerColumn drops the answer to question index from every stored response.
	DeleteAnswerColumn(ctx context.Context, index int) error
	SyncHeader(ctx context.Context, questions []string) error
}

type SurveyService interface {
	HasResponded(ctx context.Context, userID int64) (bool, error)
	Submit(ctx context.Context, userID int64, answers []string) (*domain.SurveyResponse, error)
	ResetUser(ctx context.Context, userID int64) (int, error)
	ClearData(ctx context.Context) error
}
