package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func TestToIncoming_Command(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     "/add_question How old are you?",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 13}},
		From:     &tgbotapi.User{ID: 7, UserName: "ann"},
		Chat:     &tgbotapi.Chat{ID: 70},
	}}

	in, ok := ToIncoming(update)
	require.True(t, ok)
	assert.Equal(t, int64(7), in.UserID)
	assert.Equal(t, int64(70), in.ChatID)
	assert.Equal(t, "ann", in.Username)
	assert.Equal(t, "add_question", in.Command)
	assert.Equal(t, "How old are you?", in.Args)
	assert.True(t, in.IsCommand())
}

func TestToIncoming_PhotoWithCaption(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Caption: "banner",
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 1280},
		},
		From: &tgbotapi.User{ID: 7, FirstName: "Ann", LastName: "Lee"},
		Chat: &tgbotapi.Chat{ID: 7},
	}}

	in, ok := ToIncoming(update)
	require.True(t, ok)
	assert.Equal(t, "large", in.ImageRef)
	assert.Equal(t, "banner", in.Text)
	assert.Equal(t, "Ann Lee", in.Username)
	assert.False(t, in.IsCommand())
}

func TestToIncoming_IgnoresOtherUpdates(t *testing.T) {
	_, ok := ToIncoming(tgbotapi.Update{UpdateID: 1})
	assert.False(t, ok)

	_, ok = ToIncoming(tgbotapi.Update{Message: &tgbotapi.Message{Text: "hi", Chat: &tgbotapi.Chat{ID: 1}}})
	assert.False(t, ok)
}

func TestWebhookHandler(t *testing.T) {
	var mu sync.Mutex
	var got []domain.Incoming
	h := NewWebhookHandler(context.Background(), func(ctx context.Context, in domain.Incoming) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, in)
	})

	body := `{"update_id":1,"message":{"message_id":5,"date":0,"text":"Red",` +
		`"from":{"id":7,"is_bot":false,"first_name":"Ann"},"chat":{"id":7,"type":"private"}}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":2}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, domain.Incoming{UserID: 7, ChatID: 7, Username: "Ann", Text: "Red"}, got[0])
}
