package telegram

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

// userQueue hands messages to handle in arrival order per user. Each user with
// pending messages has one worker; different users run in parallel.
type userQueue struct {
	handle HandleFunc

	mu      sync.Mutex
	pending map[int64][]domain.Incoming
	wg      sync.WaitGroup
}

func newUserQueue(handle HandleFunc) *userQueue {
	return &userQueue{handle: handle, pending: make(map[int64][]domain.Incoming)}
}

func (q *userQueue) push(ctx context.Context, in domain.Incoming) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, running := q.pending[in.UserID]
	q.pending[in.UserID] = append(backlog, in)
	if running {
		return
	}
	q.wg.Add(1)
	go q.drain(ctx, in.UserID)
}

// drain runs until the user's backlog is empty. The map entry exists exactly
// while a worker is running for that user.
func (q *userQueue) drain(ctx context.Context, userID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[userID]
		if len(backlog) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		next := backlog[0]
		q.pending[userID] = backlog[1:]
		q.mu.Unlock()

		q.handle(ctx, next)
	}
}

// wait blocks until every pushed message has been handled.
func (q *userQueue) wait() {
	q.wg.Wait()
}
