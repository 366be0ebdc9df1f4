package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func updateJSON(id int, userID int64, text string) string {
	return fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,"date":0,"text":%q,`+
		`"from":{"id":%d,"is_bot":false,"first_name":"u"},"chat":{"id":%d,"type":"private"}}}`,
		id, id, text, userID, userID)
}

func TestWebhookHandler_KeepsOrderPerUser(t *testing.T) {
	var mu sync.Mutex
	var got []string
	h := NewWebhookHandler(context.Background(), func(ctx context.Context, in domain.Incoming) {
		// The first message is the slowest so later ones would overtake it without ordering.
		if in.Text == "m0" {
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, in.Text)
	})

	var want []string
	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("m%d", i)
		want = append(want, text)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(updateJSON(i, 7, text))))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	h.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got)
}

func TestUserQueue_UsersDoNotBlockEachOther(t *testing.T) {
	released := make(chan struct{})
	var mu sync.Mutex
	var order []int64

	q := newUserQueue(func(ctx context.Context, in domain.Incoming) {
		if in.UserID == 1 {
			select {
			case <-released:
			case <-time.After(2 * time.Second):
			}
		} else {
			close(released)
		}
		mu.Lock()
		defer mu.Unlock()
		order = append(order, in.UserID)
	})

	q.push(context.Background(), domain.Incoming{UserID: 1, Text: "slow"})
	q.push(context.Background(), domain.Incoming{UserID: 2, Text: "fast"})
	q.wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{2, 1}, order)
}

func TestUserQueue_RestartsWorkerAfterDrain(t *testing.T) {
	var mu sync.Mutex
	var got []string
	q := newUserQueue(func(ctx context.Context, in domain.Incoming) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, in.Text)
	})

	q.push(context.Background(), domain.Incoming{UserID: 3, Text: "a"})
	q.wait()
	q.push(context.Background(), domain.Incoming{UserID: 3, Text: "b"})
	q.wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Empty(t, q.pending)
}
