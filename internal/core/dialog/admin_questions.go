package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func (d *Dispatcher) listQuestions(ctx context.Context, c convo, in domain.Incoming) flow {
	set, err := d.deps.Questions.Reload(ctx)
	if err != nil {
		c.fail(ctx, "list questions", err)
		return nil
	}
	if set.Len() == 0 {
		c.say(ctx, "There are no questions yet. Use /add_question to create one.")
		return nil
	}
	c.say(ctx, formatQuestions(set))
	return nil
}

func formatQuestions(set *domain.QuestionSet) string {
	var b strings.Builder
	for i, q := range set.Questions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, q.Text)
		if q.FreeAnswer() {
			b.WriteString("\n   (free answer)")
		}
		for _, opt := range q.Options {
			b.WriteString("\n   • " + describeOption(opt))
		}
	}
	return b.String()
}

func describeOption(opt domain.Option) string {
	switch opt.Kind() {
	case domain.OptionFree:
		if opt.FreeTextPrompt != "" {
			return fmt.Sprintf("%s (free text: %q)", opt.Text, opt.FreeTextPrompt)
		}
		return opt.Text + " (free text)"
	case domain.OptionBranch:
		return fmt.Sprintf("%s → %s", opt.Text, strings.Join(opt.SubOptions, ", "))
	default:
		return opt.Text
	}
}

// parseNumber reads a 1-based list position and returns the 0-based index.
func parseNumber(text string, n int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v - 1, true
}

func optionButtons(options []domain.Option, extra ...string) [][]string {
	buttons := make([]string, 0, len(options)+len(extra))
	for _, opt := range options {
		buttons = append(buttons, opt.Text)
	}
	return column(append(buttons, extra...)...)
}

func findOption(options []domain.Option, text string) (int, bool) {
	for i, opt := range options {
		if opt.Text == text {
			return i, true
		}
	}
	return parseNumber(text, len(options))
}

func copyOptions(options []domain.Option) []domain.Option {
	return domain.Question{Options: options}.Clone().Options
}

// questionRef pins an admin flow to one question by position and text, and
// re-validates both against a fresh reload before every mutation.
type questionRef struct {
	index int
	text  string
}

func (r *questionRef) resolve(ctx context.Context, d *Dispatcher, c convo) (domain.Question, bool) {
	set, err := d.deps.Questions.Reload(ctx)
	if err != nil {
		c.fail(ctx, "reload questions", err)
		return domain.Question{}, false
	}
	if q, ok := set.At(r.index); ok && q.Text == r.text {
		return q, true
	}

	match := -1
	for i, q := range set.Questions {
		if q.Text == r.text {
			if match >= 0 {
				match = -1
				break
			}
			match = i
		}
	}
	if match < 0 {
		c.say(ctx, msgStale)
		return domain.Question{}, false
	}
	r.index = match
	return set.Questions[match], true
}

func (d *Dispatcher) pickQuestion(ctx context.Context, c convo, prompt string) (*domain.QuestionSet, bool) {
	set, err := d.deps.Questions.Reload(ctx)
	if err != nil {
		c.fail(ctx, "list questions", err)
		return nil, false
	}
	if set.Len() == 0 {
		c.say(ctx, "There are no questions yet.")
		return nil, false
	}
	c.say(ctx, formatQuestions(set)+"\n\n"+prompt, column(btnCancel)...)
	return set, true
}

// nestedEditor turns options into branches or free text answers.
type nestedEditor struct {
	step   int
	parent int
}

const (
	nestedParent = iota
	nestedKind
	nestedSubs
	nestedPrompt
)

func (n *nestedEditor) begin(ctx context.Context, c convo, options []domain.Option) {
	n.step = nestedParent
	c.say(ctx, "Choose the option to extend, or press Done.", optionButtons(options, btnDone)...)
}

// handle edits options in place. It reports whether the editor is finished and
// whether options changed.
func (n *nestedEditor) handle(ctx context.Context, c convo, options []domain.Option, text string) (done, updated bool) {
	switch n.step {
	case nestedParent:
		if text == btnDone {
			return true, false
		}
		i, ok := findOption(options, text)
		if !ok {
			c.say(ctx, msgChooseButton, optionButtons(options, btnDone)...)
			return false, false
		}
		n.parent = i
		n.step = nestedKind
		c.say(ctx, fmt.Sprintf("What should %q lead to?", options[i].Text), column(btnSubOptions, btnFreeText, btnCancel)...)

	case nestedKind:
		switch text {
		case btnSubOptions:
			n.step = nestedSubs
			c.say(ctx, "Send the sub-options separated by commas or semicolons.")
		case btnFreeText:
			n.step = nestedPrompt
			c.say(ctx, "Send the prompt shown before the free text answer, or press Skip.", column(btnSkip)...)
		case btnCancel:
			n.begin(ctx, c, options)
		default:
			c.say(ctx, msgChooseButton, column(btnSubOptions, btnFreeText, btnCancel)...)
		}

	case nestedSubs:
		subs := domain.SplitSubOptions(text)
		if len(subs) == 0 {
			c.say(ctx, "Send at least one sub-option.")
			return false, false
		}
		options[n.parent] = domain.BranchOption(options[n.parent].Text, subs...)
		n.step = nestedParent
		return false, true

	case nestedPrompt:
		prompt := text
		if text == btnSkip {
			prompt = ""
		}
		options[n.parent] = domain.FreeOption(options[n.parent].Text, prompt)
		n.step = nestedParent
		return false, true
	}
	return false, false
}

const (
	aqText = iota
	aqKind
	aqOptions
	aqNestedAsk
	aqNested
)

type addQuestionFlow struct {
	d      *Dispatcher
	c      convo
	state  int
	draft  domain.Question
	nested nestedEditor
}

func (d *Dispatcher) addQuestion(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &addQuestionFlow{d: d, c: c, state: aqText}
	if text := strings.TrimSpace(in.Args); text != "" {
		return f.withText(ctx, text)
	}
	c.say(ctx, "Send the text of the new question.", column(btnCancel)...)
	return f
}

func (f *addQuestionFlow) withText(ctx context.Context, text string) flow {
	f.draft.Text = text
	f.state = aqKind
	f.c.say(ctx, "Does the question offer options or take a free answer?", column(btnOptions, btnFreeAnswer, btnCancel)...)
	return f
}

func (f *addQuestionFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel && f.state != aqNested {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case aqText:
		if text == "" {
			f.c.say(ctx, "The question text cannot be empty.", column(btnCancel)...)
			return false
		}
		f.withText(ctx, text)

	case aqKind:
		switch text {
		case btnFreeAnswer:
			return f.save(ctx)
		case btnOptions:
			f.state = aqOptions
			f.c.say(ctx, "Send the options one message at a time. Press Done when finished.", column(btnDone)...)
		default:
			f.c.say(ctx, msgChooseButton, column(btnOptions, btnFreeAnswer, btnCancel)...)
		}

	case aqOptions:
		if text == btnDone {
			if len(f.draft.Options) == 0 {
				f.c.say(ctx, "Add at least one option first.", column(btnDone)...)
				return false
			}
			f.state = aqNestedAsk
			f.c.say(ctx, "Add nested options (sub-options or free text) to any option?", column(btnYes, btnNo)...)
			return false
		}
		if text == "" {
			return false
		}
		if f.draft.OptionIndex(text) >= 0 {
			f.c.say(ctx, "This option already exists.", column(btnDone)...)
			return false
		}
		f.draft.Options = append(f.draft.Options, domain.LeafOption(text))
		f.c.say(ctx, fmt.Sprintf("Option %d added. Send another one or press Done.", len(f.draft.Options)), column(btnDone)...)

	case aqNestedAsk:
		switch text {
		case btnYes:
			f.state = aqNested
			f.nested.begin(ctx, f.c, f.draft.Options)
		case btnNo:
			return f.save(ctx)
		default:
			f.c.say(ctx, msgChooseButton, column(btnYes, btnNo)...)
		}

	case aqNested:
		done, updated := f.nested.handle(ctx, f.c, f.draft.Options, text)
		if done {
			return f.save(ctx)
		}
		if updated {
			f.c.say(ctx, "Saved: "+describeOption(f.draft.Options[f.nested.parent]))
			f.nested.begin(ctx, f.c, f.draft.Options)
		}
	}
	return false
}

func (f *addQuestionFlow) save(ctx context.Context) bool {
	err := f.d.deps.Questions.Add(ctx, f.draft)
	switch {
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrDuplicateOption):
		f.c.say(ctx, "The question is invalid: "+err.Error())
		return true
	case err != nil:
		f.c.fail(ctx, "add question", err)
		return true
	}
	f.c.say(ctx, "Question added:\n"+f.draft.Text)
	return true
}

const (
	eqPick = iota
	eqAction
	eqText
	eqMenu
	eqAddOption
	eqRemoveOption
	eqNested
)

type editQuestionFlow struct {
	d       *Dispatcher
	c       convo
	state   int
	ref     questionRef
	nested  nestedEditor
	working []domain.Option
}

func (d *Dispatcher) editQuestion(ctx context.Context, c convo, in domain.Incoming) flow {
	set, ok := d.pickQuestion(ctx, c, "Send the number of the question to edit.")
	if !ok {
		return nil
	}
	f := &editQuestionFlow{d: d, c: c, state: eqPick}
	if in.Args != "" {
		f.pick(ctx, set, in.Args)
	}
	return f
}

func (f *editQuestionFlow) pick(ctx context.Context, set *domain.QuestionSet, text string) bool {
	i, ok := parseNumber(text, set.Len())
	if !ok {
		f.c.say(ctx, msgChooseNumber, column(btnCancel)...)
		return false
	}
	f.ref = questionRef{index: i, text: set.Questions[i].Text}
	f.state = eqAction
	f.c.say(ctx, "Editing:\n"+f.ref.text, column(btnEditText, btnEditOptions, btnCancel)...)
	return true
}

func (f *editQuestionFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel && f.state != eqNested {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case eqPick:
		set, err := f.d.deps.Questions.Current(ctx)
		if err != nil {
			f.c.fail(ctx, "load questions", err)
			return true
		}
		f.pick(ctx, set, text)

	case eqAction:
		switch text {
		case btnEditText:
			f.state = eqText
			f.c.say(ctx, "Send the new question text.", column(btnCancel)...)
		case btnEditOptions:
			return f.menu(ctx)
		default:
			f.c.say(ctx, msgChooseButton, column(btnEditText, btnEditOptions, btnCancel)...)
		}

	case eqText:
		if text == "" {
			return false
		}
		if _, ok := f.ref.resolve(ctx, f.d, f.c); !ok {
			return true
		}
		if err := f.d.deps.Questions.UpdateText(ctx, f.ref.index, text); err != nil {
			f.c.fail(ctx, "update question text", err)
			return true
		}
		f.ref.text = text
		f.c.say(ctx, "Question updated.")
		return true

	case eqMenu:
		return f.menuChoice(ctx, text)

	case eqAddOption:
		if text == "" {
			return false
		}
		q, ok := f.ref.resolve(ctx, f.d, f.c)
		if !ok {
			return true
		}
		if q.OptionIndex(text) >= 0 {
			f.c.say(ctx, "This option already exists.")
			return f.menu(ctx)
		}
		return f.store(ctx, append(copyOptions(q.Options), domain.LeafOption(text)))

	case eqRemoveOption:
		q, ok := f.ref.resolve(ctx, f.d, f.c)
		if !ok {
			return true
		}
		i, found := findOption(q.Options, text)
		if !found {
			f.c.say(ctx, msgChooseButton, optionButtons(q.Options, btnCancel)...)
			return false
		}
		opts := copyOptions(q.Options)
		return f.store(ctx, append(opts[:i], opts[i+1:]...))

	case eqNested:
		done, updated := f.nested.handle(ctx, f.c, f.working, text)
		if updated {
			q, ok := f.ref.resolve(ctx, f.d, f.c)
			if !ok {
				return true
			}
			// Apply just the edited option onto the fresh list.
			changed := f.working[f.nested.parent]
			i := q.OptionIndex(changed.Text)
			if i < 0 {
				f.c.say(ctx, msgStale)
				return true
			}
			opts := copyOptions(q.Options)
			opts[i] = changed
			return f.store(ctx, opts)
		}
		if done {
			return f.menu(ctx)
		}
	}
	return false
}

func (f *editQuestionFlow) menu(ctx context.Context) bool {
	q, ok := f.ref.resolve(ctx, f.d, f.c)
	if !ok {
		return true
	}
	f.state = eqMenu

	var b strings.Builder
	b.WriteString(q.Text)
	if q.FreeAnswer() {
		b.WriteString("\n(free answer)")
	}
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, describeOption(opt))
	}
	f.c.say(ctx, b.String(), column(btnAddOption, btnRemove, btnAddNested, btnConvertFree, btnDone)...)
	return false
}

func (f *editQuestionFlow) menuChoice(ctx context.Context, text string) bool {
	q, ok := f.ref.resolve(ctx, f.d, f.c)
	if !ok {
		return true
	}

	switch text {
	case btnAddOption:
		f.state = eqAddOption
		f.c.say(ctx, "Send the new option text.", column(btnCancel)...)
	case btnRemove:
		if len(q.Options) == 0 {
			f.c.say(ctx, "The question has no options.")
			return f.menu(ctx)
		}
		f.state = eqRemoveOption
		f.c.say(ctx, "Choose the option to remove.", optionButtons(q.Options, btnCancel)...)
	case btnAddNested:
		if len(q.Options) == 0 {
			f.c.say(ctx, "The question has no options.")
			return f.menu(ctx)
		}
		f.state = eqNested
		f.working = copyOptions(q.Options)
		f.nested.begin(ctx, f.c, f.working)
	case btnConvertFree:
		return f.store(ctx, nil)
	case btnDone:
		f.c.say(ctx, "Done.")
		return true
	default:
		f.c.say(ctx, msgChooseButton, column(btnAddOption, btnRemove, btnAddNested, btnConvertFree, btnDone)...)
	}
	return false
}

func (f *editQuestionFlow) store(ctx context.Context, options []domain.Option) bool {
	err := f.d.deps.Questions.UpdateOptions(ctx, f.ref.index, options)
	switch {
	case errors.Is(err, domain.ErrDuplicateOption), errors.Is(err, domain.ErrEmptyText):
		f.c.say(ctx, "The options are invalid: "+err.Error())
	case err != nil:
		f.c.fail(ctx, "update options", err)
		return true
	default:
		f.c.say(ctx, "Options updated.")
	}
	return f.menu(ctx)
}

const (
	dqPick = iota
	dqConfirm
)

type deleteQuestionFlow struct {
	d     *Dispatcher
	c     convo
	state int
	ref   questionRef
}

func (d *Dispatcher) deleteQuestion(ctx context.Context, c convo, in domain.Incoming) flow {
	if _, ok := d.pickQuestion(ctx, c, "Send the number of the question to delete."); !ok {
		return nil
	}
	return &deleteQuestionFlow{d: d, c: c, state: dqPick}
}

func (f *deleteQuestionFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case dqPick:
		set, err := f.d.deps.Questions.Current(ctx)
		if err != nil {
			f.c.fail(ctx, "load questions", err)
			return true
		}
		i, ok := parseNumber(text, set.Len())
		if !ok {
			f.c.say(ctx, msgChooseNumber, column(btnCancel)...)
			return false
		}
		f.ref = questionRef{index: i, text: set.Questions[i].Text}
		f.state = dqConfirm
		f.c.say(ctx, fmt.Sprintf("Delete question %d?\n%s", i+1, f.ref.text), column(btnYes, btnNo)...)

	case dqConfirm:
		switch text {
		case btnNo:
			f.c.say(ctx, msgCancelled)
			return true
		case btnYes:
		default:
			f.c.say(ctx, msgChooseButton, column(btnYes, btnNo)...)
			return false
		}
		if _, ok := f.ref.resolve(ctx, f.d, f.c); !ok {
			return true
		}
		if err := f.d.deps.Questions.Delete(ctx, f.ref.index); err != nil {
			f.c.fail(ctx, "delete question", err)
			return true
		}
		f.c.say(ctx, "Question deleted.")
		return true
	}
	return false
}
