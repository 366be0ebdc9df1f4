package table

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

const timeLayout = time.RFC3339

var (
	questionsHeader  = []string{"question", "options"}
	answersHeader    = []string{"timestamp", "user_id"}
	statisticsHeader = []string{"question", "option", "count"}
	adminsHeader     = []string{"id", "name", "description"}
	usersHeader      = []string{"numeric_id", "platform_id", "username", "registration_date"}
	messagesHeader   = []string{"type", "text", "image", "timestamp"}
	postsHeader      = []string{"id", "title", "text", "image", "button_text", "button_url", "created_at", "admin_id"}
)

// Bootstrap makes sure every table exists with its header row.
func Bootstrap(ctx context.Context, store ports.TableStore, tables ports.Tables, questions []string) error {
	headers := map[string][]string{
		tables.Questions:  questionsHeader,
		tables.Answers:    append(append([]string{}, answersHeader...), questions...),
		tables.Statistics: statisticsHeader,
		tables.Admins:     adminsHeader,
		tables.Users:      usersHeader,
		tables.Messages:   messagesHeader,
		tables.Posts:      postsHeader,
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, header := range headers {
		g.Go(func() error {
			if err := store.EnsureTable(gctx, name, header); err != nil {
				return fmt.Errorf("failed to bootstrap table %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellInt(row []string, i int) (int64, error) {
	return strconv.ParseInt(cell(row, i), 10, 64)
}

func cellTime(row []string, i int) time.Time {
	t, err := time.Parse(timeLayout, cell(row, i))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
