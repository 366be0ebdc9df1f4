package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

const (
	stateWaiting     = "waiting_start"
	stateQuestion    = "question"
	stateQuestionSub = "question_sub"
	stateConfirming  = "confirming"
	stateDone        = "done"

	eventBegin   = "begin"
	eventBranch  = "branch"
	eventResume  = "resume"
	eventReview  = "review"
	eventExtend  = "extend"
	eventRestart = "restart"
	eventConfirm = "confirm"
)

func newSurveyMachine() *fsm.FSM {
	return fsm.NewFSM(
		stateWaiting,
		fsm.Events{
			{Name: eventBegin, Src: []string{stateWaiting}, Dst: stateQuestion},
			{Name: eventBranch, Src: []string{stateQuestion}, Dst: stateQuestionSub},
			{Name: eventResume, Src: []string{stateQuestionSub}, Dst: stateQuestion},
			{Name: eventReview, Src: []string{stateQuestion, stateQuestionSub}, Dst: stateConfirming},
			{Name: eventExtend, Src: []string{stateConfirming}, Dst: stateQuestion},
			{Name: eventRestart, Src: []string{stateQuestion, stateQuestionSub, stateConfirming}, Dst: stateQuestion},
			{Name: eventConfirm, Src: []string{stateConfirming}, Dst: stateDone},
		},
		fsm.Callbacks{},
	)
}

// SurveyEngine walks users through the current question set.
type SurveyEngine struct {
	deps Deps

	mu       sync.Mutex
	sessions map[int64]*surveySession
}

func NewSurveyEngine(deps Deps) *SurveyEngine {
	e := &SurveyEngine{
		deps:     deps,
		sessions: make(map[int64]*surveySession),
	}
	deps.Questions.Subscribe(e.onQuestionsChanged)
	return e
}

// surveySession is one user's run through the survey. step is the index of the
// question being answered and always equals len(answers).
type surveySession struct {
	engine   *SurveyEngine
	c        convo
	username string

	mu      sync.Mutex
	machine *fsm.FSM
	step    int
	answers []string
	parent  *domain.Option
}

// Start begins a survey run. It returns nil when the user may not take it.
func (e *SurveyEngine) Start(ctx context.Context, in domain.Incoming) flow {
	c := newConvo(e.deps.Messenger, in)

	responded, err := e.deps.Survey.HasResponded(ctx, in.UserID)
	if err != nil {
		c.fail(ctx, "check response", err)
		return nil
	}
	if responded {
		c.say(ctx, msgAlreadyTaken)
		return nil
	}

	set, err := e.deps.Questions.Current(ctx)
	if err != nil {
		c.fail(ctx, "load questions", err)
		return nil
	}
	if set.Len() == 0 {
		c.say(ctx, msgNoQuestions)
		return nil
	}

	e.sendSystemMessage(ctx, c, domain.MessageStart, in.Username)

	s := &surveySession{
		engine:   e,
		c:        c,
		username: in.Username,
		machine:  newSurveyMachine(),
	}
	if err := s.fire(ctx, eventBegin); err != nil {
		c.fail(ctx, "begin survey", err)
		return nil
	}

	s.askCurrent(ctx, set)

	e.mu.Lock()
	e.sessions[in.UserID] = s
	e.mu.Unlock()
	return s
}

// Restart clears an in-progress run, or starts a new one.
func (e *SurveyEngine) Restart(ctx context.Context, in domain.Incoming) flow {
	e.mu.Lock()
	s := e.sessions[in.UserID]
	e.mu.Unlock()
	if s == nil {
		return e.Start(ctx, in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := e.deps.Questions.Current(ctx)
	if err != nil {
		s.c.fail(ctx, "load questions", err)
		e.end(s)
		return nil
	}
	s.restart(ctx, set)
	return s
}

func (e *SurveyEngine) end(s *surveySession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[s.c.userID] == s {
		delete(e.sessions, s.c.userID)
	}
}

// ActiveSessions reports the number of users currently taking the survey.
func (e *SurveyEngine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *SurveyEngine) sendSystemMessage(ctx context.Context, c convo, t domain.MessageType, username string) {
	msg, err := e.deps.Messages.Get(ctx, t)
	if err != nil {
		log.Warn().Err(err).Str("type", string(t)).Msg("using default system message")
	}
	c.send(ctx, domain.OutgoingMessage{
		ChatID:         c.chatID,
		Text:           msg.Render(username),
		ImageRef:       msg.ImageRef,
		RemoveKeyboard: true,
	})
}

// onQuestionsChanged keeps running sessions aligned with the shared model.
func (e *SurveyEngine) onQuestionsChanged(change domain.QuestionChange, set *domain.QuestionSet) {
	e.mu.Lock()
	sessions := make([]*surveySession, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	ctx := context.Background()
	for _, s := range sessions {
		s.mu.Lock()
		if s.apply(ctx, change, set) {
			s.c.say(ctx, msgSurveyUpdated)
			s.askCurrent(ctx, set)
		}
		s.mu.Unlock()
	}
}

func (s *surveySession) handle(ctx context.Context, in domain.Incoming) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.engine.deps.Questions.Current(ctx)
	if err != nil {
		s.c.fail(ctx, "load questions", err)
		return s.finish()
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		s.askCurrent(ctx, set)
		return false
	}

	switch s.machine.Current() {
	case stateQuestion:
		s.answerQuestion(ctx, set, text)
	case stateQuestionSub:
		s.answerSub(ctx, set, text)
	case stateConfirming:
		return s.confirm(ctx, set, text)
	}
	return s.machine.Is(stateDone)
}

func (s *surveySession) answerQuestion(ctx context.Context, set *domain.QuestionSet, text string) {
	q, ok := set.At(s.step)
	if !ok {
		s.review(ctx, set)
		return
	}
	if text == btnBack {
		s.askCurrent(ctx, set)
		return
	}

	if opt, matched := q.Match(text); matched && opt.Kind() != domain.OptionLeaf {
		chosen := opt
		s.parent = &chosen
		if err := s.fire(ctx, eventBranch); err != nil {
			s.c.fail(ctx, "branch", err)
			return
		}
		s.askSub(ctx)
		return
	}

	// A leaf match, an unmatched reply and a free answer question all store the text as is.
	s.record(ctx, set, text)
}

func (s *surveySession) answerSub(ctx context.Context, set *domain.QuestionSet, text string) {
	if text == btnBack || s.parent == nil {
		s.parent = nil
		s.advance(ctx, eventResume)
		s.askCurrent(ctx, set)
		return
	}

	if s.parent.Kind() == domain.OptionBranch && !s.parent.HasSubOption(text) {
		s.c.say(ctx, msgChooseButton)
		s.askSub(ctx)
		return
	}

	answer := domain.ComposeAnswer(s.parent.Text, text)
	s.parent = nil
	if err := s.fire(ctx, eventResume); err != nil {
		s.c.fail(ctx, "resume", err)
		return
	}
	s.record(ctx, set, answer)
}

func (s *surveySession) record(ctx context.Context, set *domain.QuestionSet, answer string) {
	s.answers = append(s.answers, answer)
	s.step++
	if s.step >= set.Len() {
		s.review(ctx, set)
		return
	}
	s.askCurrent(ctx, set)
}

func (s *surveySession) review(ctx context.Context, set *domain.QuestionSet) {
	if !s.machine.Is(stateConfirming) {
		if err := s.fire(ctx, eventReview); err != nil {
			s.c.fail(ctx, "review", err)
			return
		}
	}

	var b strings.Builder
	b.WriteString("Please review your answers:\n")
	for i, answer := range s.answers {
		q, _ := set.At(i)
		fmt.Fprintf(&b, "\n%d. %s\n   %s", i+1, q.Text, answer)
	}
	s.c.say(ctx, b.String(), column(btnConfirm, btnRestart)...)
}

func (s *surveySession) confirm(ctx context.Context, set *domain.QuestionSet, text string) bool {
	switch text {
	case btnRestart:
		s.restart(ctx, set)
		return false
	case btnConfirm:
	default:
		s.c.say(ctx, msgChooseButton, column(btnConfirm, btnRestart)...)
		return false
	}

	if s.step < set.Len() {
		s.advance(ctx, eventExtend)
		s.c.say(ctx, msgSurveyUpdated)
		s.askCurrent(ctx, set)
		return false
	}

	_, err := s.engine.deps.Survey.Submit(ctx, s.c.userID, s.answers)
	switch {
	case errors.Is(err, domain.ErrAlreadyResponded):
		s.c.say(ctx, msgAlreadyTaken)
		return s.finish()
	case errors.Is(err, domain.ErrAnswerCountMismatch):
		s.c.say(ctx, msgSurveyUpdated)
		s.restart(ctx, set)
		return false
	case err != nil:
		s.c.fail(ctx, "submit response", err)
		return s.finish()
	}

	s.advance(ctx, eventConfirm)
	s.engine.sendSystemMessage(ctx, s.c, domain.MessageFinish, s.username)
	return s.finish()
}

func (s *surveySession) restart(ctx context.Context, set *domain.QuestionSet) {
	s.answers = nil
	s.step = 0
	s.parent = nil
	s.advance(ctx, eventRestart)
	if set.Len() == 0 {
		s.c.say(ctx, msgNoQuestions)
		return
	}
	s.askCurrent(ctx, set)
}

func (s *surveySession) finish() bool {
	s.engine.end(s)
	return true
}

// apply adjusts the session to a change of the question model and reports
// whether the user has to be asked again.
func (s *surveySession) apply(ctx context.Context, change domain.QuestionChange, set *domain.QuestionSet) bool {
	if s.machine.Is(stateDone) {
		return false
	}

	reask := false
	if change.Kind == domain.QuestionDeleted {
		k := change.Index
		switch {
		case k < s.step:
			s.answers = append(s.answers[:k], s.answers[k+1:]...)
			s.step--
		case k == s.step:
			reask = true
			if s.parent != nil {
				s.parent = nil
				s.advance(ctx, eventResume)
			}
		}
	}

	if s.parent != nil {
		q, ok := set.At(s.step)
		opt, found := q.Match(s.parent.Text)
		if !ok || !found || opt.Kind() == domain.OptionLeaf {
			s.parent = nil
			s.advance(ctx, eventResume)
			reask = true
		} else {
			s.parent = &opt
		}
	}

	if s.machine.Is(stateConfirming) {
		return false
	}
	if s.step >= set.Len() {
		if set.Len() == 0 {
			return false
		}
		s.review(ctx, set)
		return false
	}
	return reask
}

func (s *surveySession) askCurrent(ctx context.Context, set *domain.QuestionSet) {
	if s.machine.Is(stateConfirming) {
		s.review(ctx, set)
		return
	}
	q, ok := set.At(s.step)
	if !ok {
		s.review(ctx, set)
		return
	}

	text := fmt.Sprintf("Question %d/%d\n\n%s", s.step+1, set.Len(), q.Text)
	if q.FreeAnswer() {
		s.c.say(ctx, text)
		return
	}
	buttons := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		buttons = append(buttons, opt.Text)
	}
	s.c.say(ctx, text, column(buttons...)...)
}

func (s *surveySession) askSub(ctx context.Context) {
	if s.parent.Kind() == domain.OptionFree {
		s.c.say(ctx, s.parent.Prompt(), column(btnBack)...)
		return
	}
	s.c.say(ctx, s.parent.Text+":", column(append(append([]string{}, s.parent.SubOptions...), btnBack)...)...)
}

// fire triggers an event; a transition into the current state is not an error.
func (s *surveySession) fire(ctx context.Context, event string) error {
	err := s.machine.Event(ctx, event)
	var noTransition fsm.NoTransitionError
	if err == nil || errors.As(err, &noTransition) {
		return nil
	}
	return err
}

// advance fires an event on a path with no user-facing fallback; failures are
// logged and the session stays in its current state.
func (s *surveySession) advance(ctx context.Context, event string) {
	if err := s.fire(ctx, event); err != nil {
		log.Warn().Err(err).
			Int64("user", s.c.userID).
			Str("event", event).
			Str("state", s.machine.Current()).
			Msg("survey transition failed")
	}
}

// Snapshot exposes the session position for diagnostics and tests.
func (e *SurveyEngine) Snapshot(userID int64) (state string, step int, answers []string, ok bool) {
	e.mu.Lock()
	s := e.sessions[userID]
	e.mu.Unlock()
	if s == nil {
		return "", 0, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current(), s.step, append([]string{}, s.answers...), true
}
