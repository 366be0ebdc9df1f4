package dialog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/table"
	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
	"github.com/vncsmyrnk/surveybot/internal/core/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const adminID int64 = 1000

type recorder struct {
	mu   sync.Mutex
	sent []domain.OutgoingMessage
}

func (r *recorder) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) to(chatID int64) []domain.OutgoingMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OutgoingMessage
	for _, msg := range r.sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (r *recorder) last(chatID int64) domain.OutgoingMessage {
	msgs := r.to(chatID)
	if len(msgs) == 0 {
		return domain.OutgoingMessage{}
	}
	return msgs[len(msgs)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	out       *recorder
	store     *memory.TableStore
	tables    ports.Tables
	questions ports.QuestionService
	responses ports.ResponseRepository
	stats     *services.StatisticsService
	broadcast *services.BroadcastService
	d         *Dispatcher
}

func newHarness(t *testing.T, questions ...domain.Question) *harness {
	t.Helper()
	ctx := context.Background()

	store := memory.NewTableStore()
	tables := ports.DefaultTables()
	require.NoError(t, table.Bootstrap(ctx, store, tables, nil))

	questionRepo := table.NewQuestionRepository(store, tables.Questions, domain.CodecOptions{})
	for _, q := range questions {
		require.NoError(t, questionRepo.Append(ctx, q))
	}
	responseRepo := table.NewResponseRepository(store, tables.Answers)
	statsRepo := table.NewStatisticsRepository(store, tables.Statistics)
	userRepo := table.NewUserRepository(store, tables.Users)

	out := &recorder{}
	questionService := services.NewQuestionService(questionRepo, responseRepo)
	stats := services.NewStatisticsService(questionService, responseRepo, statsRepo)
	broadcast := services.NewBroadcastService(userRepo, out, 25)

	d := NewDispatcher(Deps{
		Messenger: out,
		Questions: questionService,
		Survey:    services.NewSurveyService(questionService, responseRepo, stats, statsRepo),
		Stats:     stats,
		Users:     services.NewUserService(userRepo),
		Admins:    services.NewAdminService(table.NewAdminRepository(store, tables.Admins), []int64{adminID}),
		Posts:     services.NewPostService(table.NewPostRepository(store, tables.Posts)),
		Broadcast: broadcast,
		Messages:  services.NewMessageService(table.NewMessageRepository(store, tables.Messages)),
		PageSize:  2,
	})

	h := &harness{
		t:         t,
		ctx:       ctx,
		out:       out,
		store:     store,
		tables:    tables,
		questions: questionService,
		responses: responseRepo,
		stats:     stats,
		broadcast: broadcast,
		d:         d,
	}
	t.Cleanup(func() {
		broadcast.Wait()
		stats.Wait()
	})
	return h
}

// command sends "/name args" from user.
func (h *harness) command(user int64, name string, args ...string) {
	h.d.Handle(h.ctx, domain.Incoming{
		UserID:   user,
		ChatID:   user,
		Username: fmt.Sprintf("user%d", user),
		Text:     "/" + name,
		Command:  name,
		Args:     strings.Join(args, " "),
	})
}

func (h *harness) say(user int64, text string) {
	h.d.Handle(h.ctx, domain.Incoming{UserID: user, ChatID: user, Text: text})
}

func (h *harness) lastText(user int64) string {
	return h.out.last(user).Text
}

func (h *harness) texts(user int64) []string {
	var out []string
	for _, msg := range h.out.to(user) {
		out = append(out, msg.Text)
	}
	return out
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

func freeQuestion(text string) domain.Question {
	return domain.Question{Text: text}
}
