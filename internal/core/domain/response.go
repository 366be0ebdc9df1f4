package domain

import (
	"strings"
	"time"
)

const AnswerSeparator = " - "

type SurveyResponse struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Answers   []string  `json:"answers"`
}

// ComposeAnswer joins an option and the value chosen under it.
func ComposeAnswer(option, value string) string {
	return option + AnswerSeparator + value
}

// SplitAnswer undoes ComposeAnswer for answers whose parent is one of the
// question's non-leaf options. Plain answers come back with an empty child.
func SplitAnswer(q Question, answer string) (parent, child string) {
	for _, opt := range q.Options {
		if opt.Kind() == OptionLeaf {
			continue
		}
		prefix := opt.Text + AnswerSeparator
		if strings.HasPrefix(answer, prefix) {
			return opt.Text, strings.TrimPrefix(answer, prefix)
		}
	}
	return answer, ""
}
