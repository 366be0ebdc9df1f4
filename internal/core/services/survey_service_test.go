package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func newSurvey(t *testing.T, env *testEnv) (*surveyService, *StatisticsService) {
	t.Helper()
	questions := NewQuestionService(env.questions, env.responses)
	stats := NewStatisticsService(questions, env.responses, env.stats)
	return NewSurveyService(questions, env.responses, stats, env.stats).(*surveyService), stats
}

func TestSubmitRejectsAnswerCountMismatch(t *testing.T) {
	env := newTestEnv(t, colorQuestion(), regionQuestion())
	svc, _ := newSurvey(t, env)

	_, err := svc.Submit(context.Background(), 1, []string{"Red"})
	assert.ErrorIs(t, err, domain.ErrAnswerCountMismatch)
}

func TestSubmitPersistsAndRecomputes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc, stats := newSurvey(t, env)

	resp, err := svc.Submit(ctx, 42, []string{"Other - Teal"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.UserID)

	_, err = svc.Submit(ctx, 42, []string{"Red"})
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)

	stats.Wait()
	stored, err := env.stats.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.StatisticsRow{{Question: "Color", Option: "Other - Teal", Count: 1}}, stored)
}

func TestResetUserDecrementsStatistics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc, stats := newSurvey(t, env)

	_, err := svc.Submit(ctx, 1, []string{"Red"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 2, []string{"Red"})
	require.NoError(t, err)
	stats.Wait()

	n, err := svc.ResetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	responded, err := svc.HasResponded(ctx, 1)
	require.NoError(t, err)
	assert.False(t, responded)

	stored, err := env.stats.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.StatisticsRow{{Question: "Color", Option: "Red", Count: 1}}, stored)

	n, err = svc.ResetUser(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc, stats := newSurvey(t, env)

	_, err := svc.Submit(ctx, 1, []string{"Blue"})
	require.NoError(t, err)
	stats.Wait()

	require.NoError(t, svc.ClearData(ctx))

	all, err := env.responses.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	stored, err := env.stats.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
