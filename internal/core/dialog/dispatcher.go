package dialog

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type Deps struct {
	Messenger ports.Messenger
	Questions ports.QuestionService
	Survey    ports.SurveyService
	Stats     ports.StatisticsService
	Users     ports.UserService
	Admins    ports.AdminService
	Posts     ports.PostService
	Broadcast ports.BroadcastService
	Messages  ports.MessageService
	PageSize  int
}

// flow is one multi-step conversation owned by a single user. handle returns
// true once the conversation is over.
type flow interface {
	handle(ctx context.Context, in domain.Incoming) bool
}

// adminCommand starts an admin conversation. A nil flow means the command
// finished in one step.
type adminCommand func(ctx context.Context, c convo, in domain.Incoming) flow

// Dispatcher routes chat events to conversations. Events of one user are
// handled one at a time; different users proceed independently.
type Dispatcher struct {
	deps     Deps
	survey   *SurveyEngine
	commands map[string]adminCommand

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	flows map[int64]flow
	known map[int64]struct{}
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.PageSize < 1 {
		deps.PageSize = 10
	}
	d := &Dispatcher{
		deps:  deps,
		locks: make(map[int64]*sync.Mutex),
		flows: make(map[int64]flow),
		known: make(map[int64]struct{}),
	}
	d.survey = NewSurveyEngine(deps)
	d.commands = map[string]adminCommand{
		"add_question":    d.addQuestion,
		"edit_question":   d.editQuestion,
		"delete_question": d.deleteQuestion,
		"list_questions":  d.listQuestions,
		"add_admin":       d.addAdmin,
		"remove_admin":    d.removeAdmin,
		"list_admins":     d.listAdmins,
		"reset_user":      d.resetUser,
		"clear_data":      d.clearData,
		"list_users":      d.listUsers,
		"messages":        d.editMessages,
		"create_post":     d.createPost,
		"list_posts":      d.listPosts,
		"manage_posts":    d.managePosts,
		"stats":           d.showStats,
	}
	return d
}

func (d *Dispatcher) Survey() *SurveyEngine {
	return d.survey
}

func (d *Dispatcher) Handle(ctx context.Context, in domain.Incoming) {
	lock := d.userLock(in.UserID)
	lock.Lock()
	defer lock.Unlock()

	c := d.convo(in)
	d.register(ctx, in)

	if in.IsCommand() {
		d.handleCommand(ctx, c, in)
		return
	}

	d.mu.Lock()
	active := d.flows[in.UserID]
	d.mu.Unlock()

	if active == nil {
		c.say(ctx, msgIdle)
		return
	}
	if active.handle(ctx, in) {
		d.setFlow(in.UserID, nil)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, c convo, in domain.Incoming) {
	cmd := strings.ToLower(in.Command)
	switch cmd {
	case "start":
		d.replaceFlow(ctx, in.UserID, d.survey.Start(ctx, in))
		return
	case "restart":
		d.replaceFlow(ctx, in.UserID, d.survey.Restart(ctx, in))
		return
	case "cancel":
		d.replaceFlow(ctx, in.UserID, nil)
		c.say(ctx, msgCancelled)
		return
	}

	start, ok := d.commands[cmd]
	if !ok {
		c.say(ctx, msgUnknown)
		return
	}

	isAdmin, err := d.deps.Admins.IsAdmin(ctx, in.UserID)
	if err != nil {
		c.fail(ctx, "admin check", err)
		return
	}
	if !isAdmin {
		log.Info().Int64("user", in.UserID).Str("command", cmd).Msg("refused admin command")
		c.say(ctx, msgNotAdmin)
		return
	}

	d.replaceFlow(ctx, in.UserID, start(ctx, c, in))
}

// replaceFlow installs next as the user's conversation, dropping any survey
// session the previous one held.
func (d *Dispatcher) replaceFlow(ctx context.Context, userID int64, next flow) {
	d.mu.Lock()
	prev := d.flows[userID]
	d.mu.Unlock()

	if s, ok := prev.(*surveySession); ok && s != next {
		d.survey.end(s)
	}
	d.setFlow(userID, next)
}

func (d *Dispatcher) setFlow(userID int64, f flow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f == nil {
		delete(d.flows, userID)
		return
	}
	d.flows[userID] = f
}

func (d *Dispatcher) userLock(userID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[userID] = l
	}
	return l
}

// register records the user on first contact.
func (d *Dispatcher) register(ctx context.Context, in domain.Incoming) {
	d.mu.Lock()
	_, seen := d.known[in.UserID]
	d.mu.Unlock()
	if seen || d.deps.Users == nil {
		return
	}

	if _, err := d.deps.Users.Register(ctx, in.UserID, in.Username); err != nil {
		log.Warn().Err(err).Int64("user", in.UserID).Msg("failed to register user")
		return
	}
	d.mu.Lock()
	d.known[in.UserID] = struct{}{}
	d.mu.Unlock()
}

func (d *Dispatcher) convo(in domain.Incoming) convo {
	return newConvo(d.deps.Messenger, in)
}

// convo sends replies into one chat.
type convo struct {
	messenger ports.Messenger
	chatID    int64
	userID    int64
}

func newConvo(m ports.Messenger, in domain.Incoming) convo {
	return convo{messenger: m, chatID: in.ChatID, userID: in.UserID}
}

func (c convo) say(ctx context.Context, text string, keyboard ...[]string) {
	msg := domain.OutgoingMessage{ChatID: c.chatID, Text: text}
	if len(keyboard) > 0 {
		msg.Keyboard = keyboard
	} else {
		msg.RemoveKeyboard = true
	}
	c.send(ctx, msg)
}

func (c convo) send(ctx context.Context, msg domain.OutgoingMessage) {
	if err := c.messenger.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Int64("chat", msg.ChatID).Msg("failed to send message")
	}
}

// fail reports a store failure to the user and the log. Callers end the flow.
func (c convo) fail(ctx context.Context, op string, err error) {
	log.Error().Err(err).Int64("user", c.userID).Str("op", op).Msg("operation failed")
	c.say(ctx, msgFailed)
}
