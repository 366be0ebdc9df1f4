package dialog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_ConcurrentUsers(t *testing.T) {
	h := newHarness(t, colorQuestion(), regionQuestion())

	const users = 20
	var wg sync.WaitGroup
	for i := int64(1); i <= users; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			h.command(user, "start")
			if user%2 == 0 {
				h.say(user, "Red")
			} else {
				h.say(user, "Other")
				h.say(user, "Teal")
			}
			h.say(user, "North")
			h.say(user, "N2")
			h.say(user, btnConfirm)
		}(i)
	}
	wg.Wait()
	h.stats.Wait()

	assert.Zero(t, h.d.Survey().ActiveSessions())
	responses, err := h.responses.ListAll(h.ctx)
	require.NoError(t, err)
	require.Len(t, responses, users)
	for _, r := range responses {
		require.Len(t, r.Answers, 2)
		assert.Equal(t, "North - N2", r.Answers[1])
	}

	stats, err := h.stats.Recompute(h.ctx)
	require.NoError(t, err)
	counts := make(map[string]int64)
	for _, row := range stats {
		counts[row.Question+"/"+row.Option] = row.Count
	}
	assert.Equal(t, users/2, counts["Color/Red"])
	assert.Equal(t, users/2, counts["Color/Other - Teal"])
	assert.Equal(t, users, counts["Region/North - N2"])
}

func TestDispatcher_CommandReplacesSurvey(t *testing.T) {
	h := newHarness(t, colorQuestion())

	h.command(adminID, "start")
	require.Equal(t, 1, h.d.Survey().ActiveSessions())

	h.command(adminID, "list_questions")
	assert.Zero(t, h.d.Survey().ActiveSessions())

	h.say(adminID, "Red")
	assert.Equal(t, msgIdle, h.lastText(adminID))
}

func TestDispatcher_RegistersUsersOnce(t *testing.T) {
	h := newHarness(t)

	h.say(1, "hi")
	h.say(1, "hi again")
	h.command(1, "start")

	rows, err := h.store.Rows(h.ctx, h.tables.Users)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
