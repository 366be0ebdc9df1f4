package ports

import "context"

// TableStore is a positional, sheet-like store. Row indexes are 0-based and
// exclude the header row. Rows may be shorter than the header.
type TableStore interface {
	EnsureTable(ctx context.Context, table string, header []string) error
	Rows(ctx context.Context, table string) ([][]string, error)
	AppendRow(ctx context.Context, table string, row []string) error
	UpdateRow(ctx context.Context, table string, index int, row []string) error
	DeleteRow(ctx context.Context, table string, index int) error
	ReplaceRows(ctx context.Context, table string, rows [][]string) error
	ClearRows(ctx context.Context, table string) error
}

type Tables struct {
	Questions  string
	Answers    string
	Statistics string
	Admins     string
	Users      string
	Messages   string
	Posts      string
}

func DefaultTables() Tables {
	return Tables{
		Questions:  "Questions",
		Answers:    "Answers",
		Statistics: "Statistics",
		Admins:     "Admins",
		Users:      "Users",
		Messages:   "Messages",
		Posts:      "Posts",
	}
}
