package console

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/upsconsole/internal/api"
)

var errBoom = errors.New("boom")

type updateCall struct {
	id    string
	patch api.Application
}

type fakeResource struct {
	mu        sync.Mutex
	total     int
	fetchErr  error
	createErr error
	updateErr error
	removeErr error
	fetched   []int
	created   []api.Application
	updated   []updateCall
	removed   []string
	extra     int // extra items returned beyond a page, to test trimming
}

func (r *fakeResource) Fetch(ctx context.Context, page int) (api.Page[api.Application], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetched = append(r.fetched, page)
	if err := ctx.Err(); err != nil {
		return api.Page[api.Application]{}, err
	}
	if r.fetchErr != nil {
		return api.Page[api.Application]{}, r.fetchErr
	}
	items := apps(page*100, 3+r.extra)
	return api.Page[api.Application]{Items: items, Total: r.total, Number: page}, nil
}

func (r *fakeResource) Create(ctx context.Context, a api.Application) (api.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, a)
	if r.createErr != nil {
		return api.Application{}, r.createErr
	}
	a.ID = "new-" + strconv.Itoa(len(r.created))
	a.MasterSecret = "secret"
	return a, nil
}

func (r *fakeResource) Update(ctx context.Context, id string, patch api.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, updateCall{id: id, patch: patch})
	return r.updateErr
}

func (r *fakeResource) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return r.removeErr
}

func (r *fakeResource) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created) + len(r.updated) + len(r.removed)
}

type fakeDialogs struct {
	opened []DialogRequest
}

func (d *fakeDialogs) Open(req DialogRequest) tea.Cmd {
	d.opened = append(d.opened, req)
	return nil
}

func (d *fakeDialogs) last(t *testing.T) DialogRequest {
	t.Helper()
	if len(d.opened) == 0 {
		t.Fatal("no dialog opened")
	}
	return d.opened[len(d.opened)-1]
}

type note struct {
	ok       bool
	message  string
	severity Severity
}

type fakeNotifier struct {
	notes []note
}

func (n *fakeNotifier) Success(message string) {
	n.notes = append(n.notes, note{ok: true, message: message})
}

func (n *fakeNotifier) Error(message string, severity Severity) {
	n.notes = append(n.notes, note{message: message, severity: severity})
}

func (n *fakeNotifier) errors() int {
	c := 0
	for _, x := range n.notes {
		if !x.ok {
			c++
		}
	}
	return c
}

func apps(base, n int) []api.Application {
	out := make([]api.Application, 0, n)
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(base + i)
		out = append(out, api.Application{ID: "app-" + id, Name: "app " + id})
	}
	return out
}

type harness struct {
	list  *ListController[api.Application]
	res   *fakeResource
	dlg   *fakeDialogs
	notes *fakeNotifier
	state *AppState
}

func newHarness(t *testing.T, pageSize int) *harness {
	t.Helper()
	h := &harness{res: &fakeResource{}, dlg: &fakeDialogs{}, notes: &fakeNotifier{}, state: &AppState{}}
	h.list = NewList[api.Application](context.Background(), h.res, h.dlg, h.notes, h.state, ListConfig{
		Noun:      "application",
		PageSize:  pageSize,
		Templates: DialogTemplates{Create: "create-app", Edit: "create-app", Remove: "remove-app"},
	})
	t.Cleanup(h.list.Close)
	return h
}

// resolve answers the most recent dialog and runs the resulting remote call to completion.
func (h *harness) resolve(t *testing.T, outcome Outcome, value any) {
	t.Helper()
	req := h.dlg.last(t)
	cmd := h.list.Update(DialogResultMsg{SessionID: req.SessionID, Outcome: outcome, Value: value})
	h.run(cmd)
}

// run executes cmd synchronously and feeds its message back, as the tea runtime would.
func (h *harness) run(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		cmd = h.list.Update(msg)
	}
}
