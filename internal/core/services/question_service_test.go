package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func TestQuestionServiceMutationsPublishChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc := NewQuestionService(env.questions, env.responses)

	var changes []domain.QuestionChange
	svc.Subscribe(func(change domain.QuestionChange, set *domain.QuestionSet) {
		changes = append(changes, change)
	})

	set, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	require.NoError(t, svc.Add(ctx, regionQuestion()))
	require.NoError(t, svc.UpdateText(ctx, 0, "Favourite color"))
	require.NoError(t, svc.Delete(ctx, 0))

	require.Len(t, changes, 4)
	assert.Equal(t, domain.QuestionsReload, changes[0].Kind)
	assert.Equal(t, domain.QuestionChange{Kind: domain.QuestionAdded, Index: 1, Version: changes[1].Version}, changes[1])
	assert.Equal(t, domain.QuestionEdited, changes[2].Kind)
	assert.Equal(t, domain.QuestionDeleted, changes[3].Kind)
	assert.Equal(t, 0, changes[3].Index)
	for i := 1; i < len(changes); i++ {
		assert.Greater(t, changes[i].Version, changes[i-1].Version)
	}

	set, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Region"}, set.Texts())
	assert.Equal(t, []string{"timestamp", "user_id", "Region"}, env.store.Header(env.tables.Answers))
}

func TestQuestionServiceValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc := NewQuestionService(env.questions, env.responses)

	assert.ErrorIs(t, svc.Add(ctx, domain.Question{Text: "  "}), domain.ErrEmptyText)
	assert.ErrorIs(t, svc.Add(ctx, domain.Question{Text: "Q", Options: []domain.Option{
		domain.LeafOption("A"), domain.LeafOption("A"),
	}}), domain.ErrDuplicateOption)
	assert.ErrorIs(t, svc.UpdateText(ctx, 3, "x"), domain.ErrInvalidIndex)
	assert.ErrorIs(t, svc.Delete(ctx, -1), domain.ErrInvalidIndex)
	assert.ErrorIs(t, svc.UpdateOptions(ctx, 0, []domain.Option{{Text: ""}}), domain.ErrEmptyText)
}

func TestQuestionServiceSeesExternalEdits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion(), regionQuestion())
	svc := NewQuestionService(env.questions, env.responses)

	_, err := svc.Current(ctx)
	require.NoError(t, err)

	// Another writer removes the first question directly in the table.
	require.NoError(t, env.store.DeleteRow(ctx, env.tables.Questions, 0))

	require.NoError(t, svc.UpdateOptions(ctx, 0, []domain.Option{domain.LeafOption("East")}))
	set, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "Region", set.Questions[0].Text)
	assert.Equal(t, []domain.Option{domain.LeafOption("East")}, set.Questions[0].Options)

	assert.ErrorIs(t, svc.Delete(ctx, 1), domain.ErrInvalidIndex)
}

func TestQuestionServiceConvertToFreeAnswer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, colorQuestion())
	svc := NewQuestionService(env.questions, env.responses)

	require.NoError(t, svc.UpdateOptions(ctx, 0, nil))
	set, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, set.Questions[0].FreeAnswer())
}
