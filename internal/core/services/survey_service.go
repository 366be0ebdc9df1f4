package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type surveyService struct {
	questions ports.QuestionService
	responses ports.ResponseRepository
	stats     ports.StatisticsService
	statsRepo ports.StatisticsRepository
	now       func() time.Time
}

func NewSurveyService(questions ports.QuestionService, responses ports.ResponseRepository, stats ports.StatisticsService, statsRepo ports.StatisticsRepository) ports.SurveyService {
	return &surveyService{
		questions: questions,
		responses: responses,
		stats:     stats,
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

func (s *surveyService) HasResponded(ctx context.Context, userID int64) (bool, error) {
	return s.responses.HasResponded(ctx, userID)
}

// Submit persists one complete response and schedules a statistics recompute.
func (s *surveyService) Submit(ctx context.Context, userID int64, answers []string) (*domain.SurveyResponse, error) {
	set, err := s.questions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if len(answers) != set.Len() {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", domain.ErrAnswerCountMismatch, len(answers), set.Len())
	}

	hasResponded, err := s.responses.HasResponded(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasResponded {
		return nil, domain.ErrAlreadyResponded
	}

	resp := &domain.SurveyResponse{
		Timestamp: s.now(),
		UserID:    userID,
		Answers:   append([]string{}, answers...),
	}
	if err := s.responses.Save(ctx, resp); err != nil {
		return nil, err
	}

	s.stats.RecomputeAsync(ctx)
	return resp, nil
}

// ResetUser removes the user's responses so they can take the survey again.
func (s *surveyService) ResetUser(ctx context.Context, userID int64) (int, error) {
	deleted, err := s.responses.DeleteByUser(ctx, userID)
	if err != nil {
		return len(deleted), err
	}
	if len(deleted) == 0 {
		return 0, nil
	}
	if err := s.stats.Decrement(ctx, deleted); err != nil {
		return len(deleted), fmt.Errorf("failed to update statistics: %w", err)
	}
	return len(deleted), nil
}

func (s *surveyService) ClearData(ctx context.Context) error {
	if err := s.responses.Clear(ctx); err != nil {
		return err
	}
	return s.statsRepo.Clear(ctx)
}
