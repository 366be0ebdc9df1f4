package domain

import "strings"

type OptionKind string

const (
	OptionLeaf   OptionKind = "leaf"
	OptionFree   OptionKind = "free"
	OptionBranch OptionKind = "branch"
)

// Option is one selectable answer. A nil SubOptions slice marks a leaf, an empty
// non-nil slice marks a free answer and a non-empty slice marks a branch.
type Option struct {
	Text           string   `json:"text"`
	SubOptions     []string `json:"sub_options,omitempty"`
	FreeTextPrompt string   `json:"free_text_prompt,omitempty"`
}

func LeafOption(text string) Option {
	return Option{Text: text}
}

func FreeOption(text, prompt string) Option {
	return Option{Text: text, SubOptions: []string{}, FreeTextPrompt: prompt}
}

func BranchOption(text string, subs ...string) Option {
	return Option{Text: text, SubOptions: append([]string{}, subs...)}
}

func (o Option) Kind() OptionKind {
	switch {
	case o.SubOptions == nil:
		return OptionLeaf
	case len(o.SubOptions) == 0:
		return OptionFree
	default:
		return OptionBranch
	}
}

func (o Option) HasSubOption(value string) bool {
	for _, s := range o.SubOptions {
		if s == value {
			return true
		}
	}
	return false
}

// Prompt is the question asked after a free answer option is chosen.
func (o Option) Prompt() string {
	if o.FreeTextPrompt != "" {
		return o.FreeTextPrompt
	}
	return DefaultFreeTextPrompt
}

const DefaultFreeTextPrompt = "Please type your answer:"

type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// FreeAnswer reports whether the question accepts any text.
func (q Question) FreeAnswer() bool {
	return len(q.Options) == 0
}

// Match returns the first option whose text equals input exactly.
func (q Question) Match(input string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Text == input {
			return opt, true
		}
	}
	return Option{}, false
}

func (q Question) OptionIndex(text string) int {
	for i, opt := range q.Options {
		if opt.Text == text {
			return i
		}
	}
	return -1
}

func (q Question) Clone() Question {
	out := Question{Text: q.Text, Options: make([]Option, len(q.Options))}
	for i, opt := range q.Options {
		out.Options[i] = opt
		if opt.SubOptions != nil {
			out.Options[i].SubOptions = append([]string{}, opt.SubOptions...)
		}
	}
	return out
}

// QuestionSet is an immutable snapshot of the question table.
type QuestionSet struct {
	Version   int64
	Questions []Question
}

func (s *QuestionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Questions)
}

func (s *QuestionSet) At(index int) (Question, bool) {
	if s == nil || index < 0 || index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[index], true
}

func (s *QuestionSet) Texts() []string {
	texts := make([]string, 0, s.Len())
	for _, q := range s.Questions {
		texts = append(texts, q.Text)
	}
	return texts
}

type QuestionChangeKind string

const (
	QuestionAdded   QuestionChangeKind = "added"
	QuestionEdited  QuestionChangeKind = "edited"
	QuestionDeleted QuestionChangeKind = "deleted"
	QuestionsReload QuestionChangeKind = "reloaded"
)

type QuestionChange struct {
	Kind    QuestionChangeKind
	Index   int
	Version int64
}

// SplitSubOptions parses an admin supplied list separated by semicolons or commas.
func SplitSubOptions(raw string) []string {
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
