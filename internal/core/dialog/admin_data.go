package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

const (
	cdFirst = iota
	cdSecond
)

type clearDataFlow struct {
	d     *Dispatcher
	c     convo
	state int
}

func (d *Dispatcher) clearData(ctx context.Context, c convo, in domain.Incoming) flow {
	c.say(ctx, "This removes every survey answer and all statistics. Continue?", column(btnYes, btnNo)...)
	return &clearDataFlow{d: d, c: c, state: cdFirst}
}

func (f *clearDataFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	switch f.state {
	case cdFirst:
		switch text {
		case btnYes:
			f.state = cdSecond
			f.c.say(ctx, "Are you absolutely sure? This cannot be undone.", column(btnWipe, btnCancel)...)
			return false
		case btnNo, btnCancel:
			f.c.say(ctx, msgCancelled)
			return true
		}
		f.c.say(ctx, msgChooseButton, column(btnYes, btnNo)...)
		return false

	default:
		if text != btnWipe {
			f.c.say(ctx, msgCancelled)
			return true
		}
		if err := f.d.deps.Survey.ClearData(ctx); err != nil {
			f.c.fail(ctx, "clear data", err)
			return true
		}
		f.c.say(ctx, "All answers and statistics were deleted.")
		return true
	}
}

func (d *Dispatcher) showStats(ctx context.Context, c convo, in domain.Incoming) flow {
	stats, err := d.deps.Stats.Grouped(ctx)
	if err != nil {
		c.fail(ctx, "load statistics", err)
		return nil
	}
	if len(stats) == 0 {
		c.say(ctx, "No statistics yet.")
		return nil
	}
	c.say(ctx, formatStats(stats))
	return nil
}

func formatStats(stats []domain.QuestionStats) string {
	var b strings.Builder
	for i, q := range stats {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s (%d)", q.Question, q.Total)
		for _, opt := range q.Options {
			fmt.Fprintf(&b, "\n• %s: %d", opt.Option, opt.Count)
			for _, child := range opt.Children {
				fmt.Fprintf(&b, "\n    – %s: %d", child.Option, child.Count)
			}
		}
	}
	return b.String()
}

const (
	emType = iota
	emText
	emImage
)

type editMessagesFlow struct {
	d     *Dispatcher
	c     convo
	state int
	msg   domain.SystemMessage
}

func messageTypeButtons() [][]string {
	buttons := make([]string, 0, len(domain.MessageTypes)+1)
	for _, t := range domain.MessageTypes {
		buttons = append(buttons, string(t))
	}
	return column(append(buttons, btnCancel)...)
}

func (d *Dispatcher) editMessages(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &editMessagesFlow{d: d, c: c, state: emType}
	if in.Args != "" {
		if f.pick(ctx, strings.TrimSpace(in.Args)) {
			return nil
		}
		return f
	}
	c.say(ctx, "Which message do you want to change?", messageTypeButtons()...)
	return f
}

// pick selects the message type and reports whether the flow is over.
func (f *editMessagesFlow) pick(ctx context.Context, text string) bool {
	t, ok := domain.ParseMessageType(text)
	if !ok {
		f.c.say(ctx, msgChooseButton, messageTypeButtons()...)
		return false
	}
	current, err := f.d.deps.Messages.Get(ctx, t)
	if err != nil {
		f.c.fail(ctx, "load message", err)
		return true
	}
	f.msg = domain.SystemMessage{Type: t}
	f.state = emText
	f.c.say(ctx, fmt.Sprintf("Current text:\n%s\n\nSend the new text. {username} is replaced with the user's name.", current.Text), column(btnCancel)...)
	return false
}

func (f *editMessagesFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case emType:
		return f.pick(ctx, text)
	case emText:
		if text == "" {
			f.c.say(ctx, "The message text cannot be empty.", column(btnCancel)...)
			return false
		}
		f.msg.Text = text
		f.state = emImage
		f.c.say(ctx, "Send an image or an image link, or press Skip.", column(btnSkip, btnCancel)...)
	case emImage:
		switch {
		case in.ImageRef != "":
			f.msg.ImageRef = in.ImageRef
		case text != btnSkip:
			f.msg.ImageRef = text
		}
		if err := f.d.deps.Messages.Set(ctx, f.msg); err != nil {
			f.c.fail(ctx, "save message", err)
			return true
		}
		f.c.say(ctx, fmt.Sprintf("The %s message was saved.", f.msg.Type))
		return true
	}
	return false
}
