package dialog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func TestPost_CreatePreviewPublishAndSend(t *testing.T) {
	h := newHarness(t)
	h.say(1, "hi")
	h.say(2, "hi")

	h.command(adminID, "create_post")
	h.say(adminID, "News")
	h.say(adminID, "Body")
	h.say(adminID, btnSkip)
	h.say(adminID, "Open")
	h.say(adminID, "ftp://example.com")
	assert.Equal(t, "The link must start with http:// or https://. Send it again.", h.lastText(adminID))

	h.out.reset()
	h.say(adminID, "https://example.com")
	msgs := h.out.to(adminID)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Preview:", msgs[0].Text)
	assert.Equal(t, "News\n\nBody", msgs[1].Text)
	assert.Equal(t, &domain.LinkButton{Text: "Open", URL: "https://example.com"}, msgs[1].Link)
	assert.Equal(t, "Publish this post?", msgs[2].Text)
	assert.Empty(t, h.out.to(1))

	h.say(adminID, btnPublish)
	assert.Equal(t, [][]string{{btnSendNow}, {btnLater}}, h.out.last(adminID).Keyboard)

	h.say(adminID, btnSendNow)
	h.broadcast.Wait()

	for _, user := range []int64{1, 2} {
		got := h.out.last(user)
		assert.Equal(t, "News\n\nBody", got.Text)
		require.NotNil(t, got.Link)
		assert.Equal(t, "https://example.com", got.Link.URL)
	}
	assert.Equal(t, "Broadcast finished.\nRecipients: 3\nDelivered: 3\nFailed: 0", h.lastText(adminID))

	h.command(adminID, "list_posts")
	assert.True(t, strings.HasPrefix(h.lastText(adminID), "Posts:\n1. News ("))
}

func TestPost_SaveForLaterThenSendFromManage(t *testing.T) {
	h := newHarness(t)
	h.say(1, "hi")

	h.command(adminID, "create_post")
	h.say(adminID, "Digest")
	h.say(adminID, "Body")
	h.say(adminID, "https://example.com/pic.jpg")
	h.say(adminID, btnSkip)
	h.say(adminID, btnPublish)
	h.say(adminID, btnLater)
	assert.Equal(t, "The post was saved. Use /manage_posts to send it later.", h.lastText(adminID))
	assert.Empty(t, h.out.to(1)[1:])

	h.command(adminID, "manage_posts")
	h.say(adminID, "2")
	assert.Equal(t, msgChooseNumber, h.lastText(adminID))
	h.say(adminID, "1")
	h.say(adminID, btnSend)
	h.broadcast.Wait()

	got := h.out.last(1)
	assert.Equal(t, "Digest\n\nBody", got.Text)
	assert.Equal(t, "https://example.com/pic.jpg", got.ImageRef)
	assert.Nil(t, got.Link)
}

func TestPost_DeleteFromManage(t *testing.T) {
	h := newHarness(t)

	h.command(adminID, "manage_posts")
	assert.Equal(t, "No posts yet. Use /create_post to write one.", h.lastText(adminID))

	h.command(adminID, "create_post")
	h.say(adminID, "Old")
	h.say(adminID, "Body")
	h.say(adminID, btnSkip)
	h.say(adminID, btnSkip)
	h.say(adminID, btnPublish)
	h.say(adminID, btnLater)

	h.command(adminID, "manage_posts")
	h.say(adminID, "1")
	h.say(adminID, btnDelete)
	assert.Equal(t, "Post deleted.", h.lastText(adminID))

	h.command(adminID, "list_posts")
	assert.Equal(t, "No posts yet. Use /create_post to write one.", h.lastText(adminID))
}

func TestPost_CancelAtAnyStep(t *testing.T) {
	h := newHarness(t)

	h.command(adminID, "create_post")
	h.say(adminID, "Title")
	h.say(adminID, btnCancel)
	assert.Equal(t, msgCancelled, h.lastText(adminID))

	h.say(adminID, "Body")
	assert.Equal(t, msgIdle, h.lastText(adminID))
}
