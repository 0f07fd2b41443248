package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jask/upsconsole/internal/api"
)

// PageState is the page on screen plus the server's count of the whole collection.
type PageState[E any] struct {
	Items   []E
	Total   int
	Current int
}

// DialogTemplates names the dialogs a list opens for each workflow.
type DialogTemplates struct {
	Create string
	Edit   string
	Remove string
}

// ListConfig configures a ListController.
type ListConfig struct {
	// Noun names one entity in notifications, e.g. "application".
	Noun      string
	PageSize  int // 0 means the page is not bounded
	Timeout   time.Duration
	Templates DialogTemplates
}

// ListController owns one page of a collection and runs the create, edit and remove
// workflows against it.
type ListController[E Entity[E]] struct {
	id        string
	cfg       ListConfig
	resource  Resource[E]
	dialogs   DialogHost
	notify    Notifier
	state     *AppState
	page      PageState[E]
	sessions  map[string]*DialogSession[E]
	token     uint64
	loading   bool
	stopFetch context.CancelFunc
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
}

// NewList creates a controller. Every request it issues derives from ctx and is
// cancelled by Close.
func NewList[E Entity[E]](ctx context.Context, resource Resource[E], dialogs DialogHost, notify Notifier, state *AppState, cfg ListConfig) *ListController[E] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Noun == "" {
		cfg.Noun = "item"
	}
	if state == nil {
		state = &AppState{}
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ListController[E]{
		id:       uuid.NewString(),
		cfg:      cfg,
		resource: resource,
		dialogs:  dialogs,
		notify:   notify,
		state:    state,
		page:     PageState[E]{Current: 1},
		sessions: map[string]*DialogSession[E]{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

type pageLoadedMsg[E any] struct {
	list   string
	token  uint64
	number int
	page   api.Page[E]
	err    error
}

type createdMsg[E any] struct {
	list   string
	entity E
	err    error
}

type updatedMsg[E any] struct {
	list   string
	entity E
	err    error
}

type removedMsg[E any] struct {
	list   string
	entity E
	err    error
}

// Page returns a copy of the current page state.
func (l *ListController[E]) Page() PageState[E] {
	p := l.page
	p.Items = slices.Clone(l.page.Items)
	return p
}

// Loading reports whether a page request is outstanding.
func (l *ListController[E]) Loading() bool { return l.loading }

// OpenSessions counts dialogs opened by this list that have not resolved yet.
func (l *ListController[E]) OpenSessions() int { return len(l.sessions) }

// PageCount is the number of pages the total spans.
func (l *ListController[E]) PageCount() int {
	if l.cfg.PageSize <= 0 || l.page.Total == 0 {
		return 1
	}
	return (l.page.Total + l.cfg.PageSize - 1) / l.cfg.PageSize
}

// Seed installs a page without asking the server, e.g. one restored from a snapshot.
func (l *ListController[E]) Seed(items []E, total, current int) {
	if l.cfg.PageSize > 0 && len(items) > l.cfg.PageSize {
		items = items[:l.cfg.PageSize]
	}
	if current < 1 {
		current = 1
	}
	l.page = PageState[E]{Items: slices.Clone(items), Total: max(total, 0), Current: current}
}

// Create opens a dialog for a new entity.
func (l *ListController[E]) Create() tea.Cmd {
	var zero E
	return l.open(DialogCreate, l.cfg.Templates.Create, zero)
}

// Edit opens a dialog pre-filled with a copy of e.
func (l *ListController[E]) Edit(e E) tea.Cmd {
	return l.open(DialogEdit, l.cfg.Templates.Edit, e)
}

// Remove opens a confirmation dialog for e.
func (l *ListController[E]) Remove(e E) tea.Cmd {
	return l.open(DialogRemove, l.cfg.Templates.Remove, e)
}

func (l *ListController[E]) open(kind DialogKind, template string, target E) tea.Cmd {
	if l.closed || l.dialogs == nil {
		return nil
	}
	s := newSession(kind, template, target)
	l.sessions[s.ID] = s
	return l.dialogs.Open(s.request())
}

// ChangePage requests page n. Only the response to the most recent request is
// applied; the request it supersedes is cancelled.
func (l *ListController[E]) ChangePage(n int) tea.Cmd {
	if l.closed {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if l.stopFetch != nil {
		l.stopFetch()
	}
	l.token++
	token, list := l.token, l.id
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.Timeout)
	l.stopFetch = cancel
	l.loading = true
	l.state.ViewLoading = true
	resource := l.resource
	return func() tea.Msg {
		defer cancel()
		page, err := resource.Fetch(ctx, n)
		return pageLoadedMsg[E]{list: list, token: token, number: n, page: page, err: err}
	}
}

// Reload fetches the current page again.
func (l *ListController[E]) Reload() tea.Cmd {
	return l.ChangePage(l.page.Current)
}

// Close cancels every request in flight. Results that arrive afterwards are dropped.
func (l *ListController[E]) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
	if l.loading {
		l.loading = false
		l.state.ViewLoading = false
	}
	for id, s := range l.sessions {
		s.close()
		delete(l.sessions, id)
	}
}

// Update applies dialog results and remote call completions that belong to this list.
func (l *ListController[E]) Update(msg tea.Msg) tea.Cmd {
	if l.closed {
		return nil
	}
	switch m := msg.(type) {
	case DialogResultMsg:
		return l.resolveDialog(m)
	case pageLoadedMsg[E]:
		if m.list == l.id {
			l.applyPage(m)
		}
	case createdMsg[E]:
		if m.list == l.id {
			l.applyCreated(m)
		}
	case updatedMsg[E]:
		if m.list == l.id {
			l.applyUpdated(m)
		}
	case removedMsg[E]:
		if m.list == l.id {
			l.applyRemoved(m)
		}
	}
	return nil
}

// Owns reports whether msg is addressed to this list.
func (l *ListController[E]) Owns(msg tea.Msg) bool {
	switch m := msg.(type) {
	case DialogResultMsg:
		_, ok := l.sessions[m.SessionID]
		return ok
	case pageLoadedMsg[E]:
		return m.list == l.id
	case createdMsg[E]:
		return m.list == l.id
	case updatedMsg[E]:
		return m.list == l.id
	case removedMsg[E]:
		return m.list == l.id
	}
	return false
}

func (l *ListController[E]) resolveDialog(m DialogResultMsg) tea.Cmd {
	s, ok := l.sessions[m.SessionID]
	if !ok {
		return nil
	}
	delete(l.sessions, m.SessionID)
	defer s.close()
	if err := s.resolve(m.Outcome); err != nil || m.Outcome == Cancelled {
		return nil
	}

	value := s.Target
	if s.Kind != DialogRemove {
		v, ok := m.Value.(E)
		if !ok {
			l.notify.Error(fmt.Sprintf("Dialog returned %T, expected %T.", m.Value, value), SeverityDanger)
			return nil
		}
		value = v
	}

	switch s.Kind {
	case DialogCreate:
		return l.createCmd(value)
	case DialogEdit:
		return l.updateCmd(value)
	case DialogRemove:
		return l.removeCmd(value)
	}
	return nil
}

func (l *ListController[E]) createCmd(e E) tea.Cmd {
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.Timeout)
	list, resource := l.id, l.resource
	return func() tea.Msg {
		defer cancel()
		created, err := resource.Create(ctx, e)
		return createdMsg[E]{list: list, entity: created, err: err}
	}
}

func (l *ListController[E]) updateCmd(e E) tea.Cmd {
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.Timeout)
	list, resource := l.id, l.resource
	return func() tea.Msg {
		defer cancel()
		err := resource.Update(ctx, e.Key(), e.Mutable())
		return updatedMsg[E]{list: list, entity: e, err: err}
	}
}

func (l *ListController[E]) removeCmd(e E) tea.Cmd {
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.Timeout)
	list, resource := l.id, l.resource
	return func() tea.Msg {
		defer cancel()
		err := resource.Remove(ctx, e.Key())
		return removedMsg[E]{list: list, entity: e, err: err}
	}
}

func (l *ListController[E]) applyPage(m pageLoadedMsg[E]) {
	if m.token != l.token {
		return
	}
	l.loading = false
	l.stopFetch = nil
	l.state.ViewLoading = false
	if m.err != nil {
		l.fail(fmt.Sprintf("loading page %d", m.number), m.err)
		return
	}
	items := m.page.Items
	if l.cfg.PageSize > 0 && len(items) > l.cfg.PageSize {
		items = items[:l.cfg.PageSize]
	}
	l.page = PageState[E]{Items: slices.Clone(items), Total: m.page.Total, Current: m.number}
}

func (l *ListController[E]) applyCreated(m createdMsg[E]) {
	if m.err != nil {
		l.fail("creating "+l.cfg.Noun, m.err)
		return
	}
	if l.cfg.PageSize <= 0 || len(l.page.Items) < l.cfg.PageSize {
		l.page.Items = append(l.page.Items, m.entity)
	}
	l.page.Total++
	l.notify.Success(fmt.Sprintf("Successfully created %s \"%s\".", l.cfg.Noun, m.entity.Label()))
}

func (l *ListController[E]) applyUpdated(m updatedMsg[E]) {
	if m.err != nil {
		l.fail("editing "+l.cfg.Noun, m.err)
		return
	}
	if i := l.indexOf(m.entity.Key()); i >= 0 {
		l.page.Items[i] = m.entity
	}
	l.notify.Success(fmt.Sprintf("Successfully edited %s \"%s\".", l.cfg.Noun, m.entity.Label()))
}

func (l *ListController[E]) applyRemoved(m removedMsg[E]) {
	if m.err != nil {
		l.fail("removing "+l.cfg.Noun, m.err)
		return
	}
	if i := l.indexOf(m.entity.Key()); i >= 0 {
		l.page.Items = slices.Delete(l.page.Items, i, i+1)
	}
	l.page.Total = max(l.page.Total-1, 0)
	l.notify.Success(fmt.Sprintf("Successfully removed %s \"%s\".", l.cfg.Noun, m.entity.Label()))
}

func (l *ListController[E]) indexOf(key string) int {
	return slices.IndexFunc(l.page.Items, func(e E) bool { return e.Key() == key })
}

func (l *ListController[E]) fail(action string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.notify.Error(fmt.Sprintf("Something went wrong %s: %v", action, err), SeverityDanger)
}
