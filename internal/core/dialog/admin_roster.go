package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

func parsePlatformID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

const (
	aaID = iota
	aaName
	aaDescription
)

type addAdminFlow struct {
	d     *Dispatcher
	c     convo
	state int
	admin domain.Admin
}

// addAdmin accepts "/add_admin <id> <name> <description>" in one message, or
// asks for the missing fields.
func (d *Dispatcher) addAdmin(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &addAdminFlow{d: d, c: c, state: aaID}

	fields := strings.Fields(in.Args)
	if len(fields) == 0 {
		c.say(ctx, "Send the platform id of the new admin.", column(btnCancel)...)
		return f
	}
	id, ok := parsePlatformID(fields[0])
	if !ok {
		c.say(ctx, "The admin id must be a positive number. Send it again.", column(btnCancel)...)
		return f
	}
	f.admin.PlatformID = id
	if len(fields) == 1 {
		f.state = aaName
		c.say(ctx, "Send the admin's name.", column(btnCancel)...)
		return f
	}
	f.admin.Name = fields[1]
	if len(fields) == 2 {
		f.state = aaDescription
		c.say(ctx, "Send a short description, or press Skip.", column(btnSkip, btnCancel)...)
		return f
	}
	f.admin.Description = strings.Join(fields[2:], " ")
	f.save(ctx)
	return nil
}

func (f *addAdminFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}

	switch f.state {
	case aaID:
		id, ok := parsePlatformID(text)
		if !ok {
			f.c.say(ctx, "The admin id must be a positive number. Send it again.", column(btnCancel)...)
			return false
		}
		f.admin.PlatformID = id
		f.state = aaName
		f.c.say(ctx, "Send the admin's name.", column(btnCancel)...)
	case aaName:
		if text == "" {
			return false
		}
		f.admin.Name = text
		f.state = aaDescription
		f.c.say(ctx, "Send a short description, or press Skip.", column(btnSkip, btnCancel)...)
	case aaDescription:
		if text != btnSkip {
			f.admin.Description = text
		}
		f.save(ctx)
		return true
	}
	return false
}

func (f *addAdminFlow) save(ctx context.Context) {
	err := f.d.deps.Admins.Add(ctx, f.admin)
	switch {
	case errors.Is(err, domain.ErrAdminExists):
		f.c.say(ctx, fmt.Sprintf("%d is already an admin.", f.admin.PlatformID))
	case err != nil:
		f.c.fail(ctx, "add admin", err)
	default:
		f.c.say(ctx, fmt.Sprintf("Admin %s (%d) added.", f.admin.Name, f.admin.PlatformID))
	}
}

type removeAdminFlow struct {
	d *Dispatcher
	c convo
}

func (d *Dispatcher) removeAdmin(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &removeAdminFlow{d: d, c: c}
	if in.Args != "" {
		if f.handle(ctx, domain.Incoming{Text: in.Args}) {
			return nil
		}
		return f
	}
	c.say(ctx, "Send the platform id of the admin to remove.", column(btnCancel)...)
	return f
}

func (f *removeAdminFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}
	id, ok := parsePlatformID(text)
	if !ok {
		f.c.say(ctx, "The admin id must be a positive number. Send it again.", column(btnCancel)...)
		return false
	}

	err := f.d.deps.Admins.Remove(ctx, id)
	switch {
	case errors.Is(err, domain.ErrAdminNotFound):
		f.c.say(ctx, fmt.Sprintf("%d cannot be removed: %v", id, err))
	case err != nil:
		f.c.fail(ctx, "remove admin", err)
	default:
		f.c.say(ctx, fmt.Sprintf("Admin %d removed.", id))
	}
	return true
}

func (d *Dispatcher) listAdmins(ctx context.Context, c convo, in domain.Incoming) flow {
	admins, err := d.deps.Admins.List(ctx)
	if err != nil {
		c.fail(ctx, "list admins", err)
		return nil
	}
	if len(admins) == 0 {
		c.say(ctx, "No admins are configured.")
		return nil
	}

	var b strings.Builder
	b.WriteString("Admins:")
	for _, a := range admins {
		fmt.Fprintf(&b, "\n• %d %s", a.PlatformID, a.Name)
		if a.Description != "" {
			b.WriteString(" · " + a.Description)
		}
	}
	c.say(ctx, b.String())
	return nil
}

type resetUserFlow struct {
	d *Dispatcher
	c convo
}

func (d *Dispatcher) resetUser(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &resetUserFlow{d: d, c: c}
	if in.Args != "" {
		if f.handle(ctx, domain.Incoming{Text: in.Args}) {
			return nil
		}
		return f
	}
	c.say(ctx, "Send the platform id of the user whose answers should be removed.", column(btnCancel)...)
	return f
}

func (f *resetUserFlow) handle(ctx context.Context, in domain.Incoming) bool {
	text := strings.TrimSpace(in.Text)
	if text == btnCancel {
		f.c.say(ctx, msgCancelled)
		return true
	}
	id, ok := parsePlatformID(text)
	if !ok {
		f.c.say(ctx, "The user id must be a positive number. Send it again.", column(btnCancel)...)
		return false
	}

	n, err := f.d.deps.Survey.ResetUser(ctx, id)
	if err != nil {
		f.c.fail(ctx, "reset user", err)
		return true
	}
	if n == 0 {
		f.c.say(ctx, fmt.Sprintf("User %d has no stored answers.", id))
		return true
	}
	f.c.say(ctx, fmt.Sprintf("Removed %d response(s) of user %d. They can take the survey again.", n, id))
	return true
}

type listUsersFlow struct {
	d    *Dispatcher
	c    convo
	page int
}

func (d *Dispatcher) listUsers(ctx context.Context, c convo, in domain.Incoming) flow {
	f := &listUsersFlow{d: d, c: c, page: 1}
	if !f.show(ctx) {
		return nil
	}
	return f
}

// show renders the current page and reports whether paging buttons were offered.
func (f *listUsersFlow) show(ctx context.Context) bool {
	users, pages, err := f.d.deps.Users.Page(ctx, f.page, f.d.deps.PageSize)
	if err != nil {
		f.c.fail(ctx, "list users", err)
		return false
	}
	if f.page > pages {
		f.page = pages
	}
	if len(users) == 0 {
		f.c.say(ctx, "No users have registered yet.")
		return false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Users, page %d/%d:", f.page, pages)
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(&b, "\n%d. %s (%d)", u.NumericID, name, u.PlatformID)
	}

	var nav []string
	if f.page > 1 {
		nav = append(nav, btnPrev)
	}
	if f.page < pages {
		nav = append(nav, btnNext)
	}
	if len(nav) == 0 {
		f.c.say(ctx, b.String())
		return false
	}
	f.c.say(ctx, b.String(), nav, []string{btnClose})
	return true
}

func (f *listUsersFlow) handle(ctx context.Context, in domain.Incoming) bool {
	switch strings.TrimSpace(in.Text) {
	case btnNext:
		f.page++
	case btnPrev:
		if f.page > 1 {
			f.page--
		}
	case btnClose, btnCancel:
		f.c.say(ctx, "Closed.")
		return true
	default:
		f.c.say(ctx, msgChooseButton, []string{btnPrev, btnNext}, []string{btnClose})
		return false
	}
	return !f.show(ctx)
}
