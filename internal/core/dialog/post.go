package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

const (
	cpTitle = iota
	cpText
	cpImage
	cpButtonText
	cpButtonURL
	cpPreview
	cpSend
)

type createPostFlow struct {
	d     *Dispatcher
	c     convo
	state int
	input ports.CreatePostInput
	post  *domain.Post
}

func (d *Dispatcher) createPost(ctx context.Context, c convo, in domain.Incoming) flow {
	c.say(ctx, "Send the post title.", column(btnCancel)...)
	return &createPostFlow{d: d, c: c, state: cpTitle, input: ports.CreatePostInput{AdminID: in.UserID}}
}

func (f *createPostFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case cpTitle:
		if text == "" {
			f.c.say(ctx, "The title cannot be empty.", column(btnCancel)...)
			return false
		}
		f.input.Title = text
		f.state = cpText
		f.c.say(ctx, "Send the post text.", column(btnCancel)...)

	case cpText:
		if text == "" {
			f.c.say(ctx, "The text cannot be empty.", column(btnCancel)...)
			return false
		}
		f.input.Text = text
		f.state = cpImage
		f.c.say(ctx, "Send an image or an image link, or press Skip.", column(btnSkip, btnCancel)...)

	case cpImage:
		switch {
		case in.ImageRef != "":
			f.input.ImageRef = in.ImageRef
		case text != btnSkip && text != "":
			f.input.ImageRef = text
		}
		f.state = cpButtonText
		f.c.say(ctx, "Send the text of a link button, or press Skip.", column(btnSkip, btnCancel)...)

	case cpButtonText:
		if text == btnSkip || text == "" {
			f.preview(ctx)
			return false
		}
		f.input.ButtonText = text
		f.state = cpButtonURL
		f.c.say(ctx, "Send the button link (http or https).", column(btnCancel)...)

	case cpButtonURL:
		if err := domain.ValidateButtonURL(text); err != nil {
			f.c.say(ctx, "The link must start with http:// or https://. Send it again.", column(btnCancel)...)
			return false
		}
		f.input.ButtonURL = text
		f.preview(ctx)

	case cpPreview:
		switch text {
		case btnPublish:
			return f.publish(ctx)
		default:
			f.c.say(ctx, msgChooseButton, column(btnPublish, btnCancel)...)
		}

	case cpSend:
		switch text {
		case btnSendNow:
			f.d.deps.Broadcast.BroadcastAsync(ctx, f.post, f.c.chatID)
			f.c.say(ctx, "Broadcast started. You will get a report when it finishes.")
			return true
		case btnLater:
			f.c.say(ctx, "The post was saved. Use /manage_posts to send it later.")
			return true
		default:
			f.c.say(ctx, msgChooseButton, column(btnSendNow, btnLater)...)
		}
	}
	return false
}

func (f *createPostFlow) preview(ctx context.Context) {
	f.state = cpPreview
	draft := domain.Post{
		Title:      f.input.Title,
		Text:       f.input.Text,
		ImageRef:   f.input.ImageRef,
		ButtonText: f.input.ButtonText,
		ButtonURL:  f.input.ButtonURL,
	}
	f.c.say(ctx, "Preview:")
	f.c.send(ctx, draft.Message(f.c.chatID))
	f.c.say(ctx, "Publish this post?", column(btnPublish, btnCancel)...)
}

func (f *createPostFlow) publish(ctx context.Context) bool {
	post, err := f.d.deps.Posts.Publish(ctx, f.input)
	switch {
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrInvalidButtonURL):
		f.c.say(ctx, "The post is invalid: "+err.Error())
		return true
	case err != nil:
		f.c.fail(ctx, "publish post", err)
		return true
	}
	f.post = post
	f.state = cpSend
	f.c.say(ctx, "Post saved. Send it to all users now?", column(btnSendNow, btnLater)...)
	return false
}

func (d *Dispatcher) listPosts(ctx context.Context, c convo, in domain.Incoming) flow {
	posts, err := d.deps.Posts.List(ctx)
	if err != nil {
		c.fail(ctx, "list posts", err)
		return nil
	}
	if len(posts) == 0 {
		c.say(ctx, "No posts yet. Use /create_post to write one.")
		return nil
	}
	c.say(ctx, formatPosts(posts))
	return nil
}

func formatPosts(posts []*domain.Post) string {
	var b strings.Builder
	b.WriteString("Posts:")
	for i, p := range posts {
		fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, p.Title, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

const (
	mpPick = iota
	mpAction
)

type managePostsFlow struct {
	d     *Dispatcher
	c     convo
	state int
	posts []*domain.Post
	post  *domain.Post
}

func (d *Dispatcher) managePosts(ctx context.Context, c convo, in domain.Incoming) flow {
	posts, err := d.deps.Posts.List(ctx)
	if err != nil {
		c.fail(ctx, "list posts", err)
		return nil
	}
	if len(posts) == 0 {
		c.say(ctx, "No posts yet. Use /create_post to write one.")
		return nil
	}
	c.say(ctx, formatPosts(posts)+"\n\nSend the number of the post.", column(btnCancel)...)
	return &managePostsFlow{d: d, c: c, state: mpPick, posts: posts}
}

func (f *managePostsFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case mpPick:
		i, ok := parseNumber(text, len(f.posts))
		if !ok {
			f.c.say(ctx, msgChooseNumber, column(btnCancel)...)
			return false
		}
		post, err := f.d.deps.Posts.Get(ctx, f.posts[i].ID)
		if errors.Is(err, domain.ErrPostNotFound) {
			f.c.say(ctx, "This post no longer exists.")
			return true
		}
		if err != nil {
			f.c.fail(ctx, "load post", err)
			return true
		}
		f.post = post
		f.state = mpAction
		f.c.send(ctx, post.Message(f.c.chatID))
		f.c.say(ctx, "What do you want to do with this post?", column(btnSend, btnDelete, btnCancel)...)

	case mpAction:
		switch text {
		case btnSend:
			f.d.deps.Broadcast.BroadcastAsync(ctx, f.post, f.c.chatID)
			f.c.say(ctx, "Broadcast started. You will get a report when it finishes.")
			return true
		case btnDelete:
			err := f.d.deps.Posts.Delete(ctx, f.post.ID)
			if err != nil && !errors.Is(err, domain.ErrPostNotFound) {
				f.c.fail(ctx, "delete post", err)
				return true
			}
			f.c.say(ctx, "Post deleted.")
			return true
		default:
			f.c.say(ctx, msgChooseButton, column(btnSend, btnDelete, btnCancel)...)
		}
	}
	return false
}
