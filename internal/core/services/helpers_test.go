package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/table"
	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type testEnv struct {
	store     *memory.TableStore
	tables    ports.Tables
	questions ports.QuestionRepository
	responses ports.ResponseRepository
	stats     ports.StatisticsRepository
	users     ports.UserRepository
	admins    ports.AdminRepository
	posts     ports.PostRepository
	messages  ports.MessageRepository
}

func newTestEnv(t *testing.T, questions ...domain.Question) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.NewTableStore()
	tables := ports.DefaultTables()
	require.NoError(t, table.Bootstrap(ctx, store, tables, nil))

	env := &testEnv{
		store:     store,
		tables:    tables,
		questions: table.NewQuestionRepository(store, tables.Questions, domain.CodecOptions{}),
		responses: table.NewResponseRepository(store, tables.Answers),
		stats:     table.NewStatisticsRepository(store, tables.Statistics),
		users:     table.NewUserRepository(store, tables.Users),
		admins:    table.NewAdminRepository(store, tables.Admins),
		posts:     table.NewPostRepository(store, tables.Posts),
		messages:  table.NewMessageRepository(store, tables.Messages),
	}
	for _, q := range questions {
		require.NoError(t, env.questions.Append(ctx, q))
	}
	return env
}

func colorQuestion() domain.Question {
	return domain.Question{Text: "Color", Options: []domain.Option{
		domain.LeafOption("Red"),
		domain.LeafOption("Blue"),
		domain.FreeOption("Other", ""),
	}}
}

func regionQuestion() domain.Question {
	return domain.Question{Text: "Region", Options: []domain.Option{
		domain.BranchOption("North", "N1", "N2"),
		domain.LeafOption("South"),
	}}
}

// fakeMessenger records deliveries and fails for the listed chats.
type fakeMessenger struct {
	mu     sync.Mutex
	sent   []domain.OutgoingMessage
	failOn map[int64]bool
}

func (m *fakeMessenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[msg.ChatID] {
		return errors.New("chat unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) to(chatID int64) []domain.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OutgoingMessage
	for _, msg := range m.sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}
