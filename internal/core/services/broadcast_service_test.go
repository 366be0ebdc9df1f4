package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func seedUsers(t *testing.T, env *testEnv, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, env.users.Create(context.Background(), &domain.User{PlatformID: id}))
	}
}

func TestBroadcastCountsFailuresWithoutStopping(t *testing.T) {
	env := newTestEnv(t)
	seedUsers(t, env, 10, 20, 30)
	messenger := &fakeMessenger{failOn: map[int64]bool{20: true}}
	svc := NewBroadcastService(env.users, messenger, 25)

	post := &domain.Post{ID: "p1", Title: "News", Text: "Hello", ButtonText: "Open", ButtonURL: "https://example.com"}
	report, err := svc.Broadcast(context.Background(), post, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "p1", report.PostID)
	assert.NotEmpty(t, report.ID)

	delivered := messenger.to(30)
	require.Len(t, delivered, 1)
	assert.Equal(t, "News\n\nHello", delivered[0].Text)
	assert.Equal(t, &domain.LinkButton{Text: "Open", URL: "https://example.com"}, delivered[0].Link)
}

func TestBroadcastReportsProgress(t *testing.T) {
	env := newTestEnv(t)
	seedUsers(t, env, 1, 2, 3, 4, 5)
	svc := NewBroadcastService(env.users, &fakeMessenger{}, 2)

	var calls [][2]int
	_, err := svc.Broadcast(context.Background(), &domain.Post{ID: "p"}, func(sent, total int) {
		calls = append(calls, [2]int{sent, total})
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}}, calls)
}

func TestBroadcastAsyncNotifiesAdmin(t *testing.T) {
	env := newTestEnv(t)
	seedUsers(t, env, 10, 20)
	messenger := &fakeMessenger{failOn: map[int64]bool{20: true}}
	svc := NewBroadcastService(env.users, messenger, 25)

	ctx, cancel := context.WithCancel(context.Background())
	svc.BroadcastAsync(ctx, &domain.Post{ID: "p", Title: "T", Text: "x"}, 99)
	cancel()
	svc.Wait()

	notes := messenger.to(99)
	require.Len(t, notes, 1)
	assert.Equal(t, "Broadcast finished.\nRecipients: 2\nDelivered: 1\nFailed: 1", notes[0].Text)
}
