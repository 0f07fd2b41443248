// Package tui is the terminal front end of the push console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jask/upsconsole/internal/api"
	"github.com/jask/upsconsole/internal/config"
	"github.com/jask/upsconsole/internal/console"
	"github.com/jask/upsconsole/internal/store"
)

const (
	snapshotApplications = "applications"
	activityShown        = 200
)

// Deps are the collaborators the console runs against. Activity and Snapshots may
// be nil, in which case nothing is persisted.
type Deps struct {
	Client    *api.Client
	Session   *console.Session
	Activity  *store.ActivityRepo
	Snapshots *store.SnapshotRepo
	Log       logrus.FieldLogger
}

// App is the root bubbletea model.
type App struct {
	ctx      context.Context
	cfg      config.Config
	client   *api.Client
	session  *console.Session
	state    *console.AppState
	activity *store.ActivityRepo
	snaps    *store.SnapshotRepo
	log      logrus.FieldLogger
	notify   *notifier
	dialogs  *dialogHost
	keys     *KeyRegistry
	screens  screenStack

	apps      *console.ListController[api.Application]
	variants  *console.ListController[api.AndroidVariant]
	selected  api.Application
	route     route
	appCursor int
	varCursor int
	actCursor int

	dashboard api.Dashboard
	history   []store.Activity

	width    int
	height   int
	quitting bool
}

type dashboardMsg struct {
	dashboard api.Dashboard
	err       error
}

type activityMsg struct {
	entries []store.Activity
	err     error
}

type snapshotMsg struct {
	items []api.Application
	snap  store.Snapshot
	err   error
}

type snapshotSavedMsg struct {
	err error
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	log := deps.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	state := deps.Session.State()
	a := &App{
		ctx:      ctx,
		cfg:      cfg,
		client:   deps.Client,
		session:  deps.Session,
		state:    state,
		activity: deps.Activity,
		snaps:    deps.Snapshots,
		log:      log,
		notify:   &notifier{log: log},
		dialogs:  newDialogHost(),
		keys:     NewKeyRegistry(DefaultKeyBindings()),
		width:    100,
		height:   32,
	}
	a.apps = console.NewList[api.Application](ctx, deps.Client.Applications(), a.dialogs, a.notify, state, console.ListConfig{
		Noun:     "application",
		PageSize: cfg.UI.PageSize,
		Timeout:  cfg.Server.RequestTimeout,
		Templates: console.DialogTemplates{
			Create: tmplApplicationForm,
			Edit:   tmplApplicationForm,
			Remove: tmplApplicationRemove,
		},
	})
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.restoreSnapshot(), a.navigate(routeDashboard))
}

// Close cancels every request the console still has in flight.
func (a *App) Close() {
	a.apps.Close()
	if a.variants != nil {
		a.variants.Close()
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.clampCursors()
	record := recordActivity(a.ctx, a.activity, a.notify.drain())
	return a, tea.Batch(cmd, record)
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		return nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case pushScreenMsg:
		a.screens.push(m.screen)
		return nil
	case console.RouteChangeStartMsg:
		return a.session.Update(msg)
	case console.RouteChangeSuccessMsg:
		cmd := a.session.Update(msg)
		// a page requested during the transition still owns the flag
		if a.listLoading() {
			a.state.ViewLoading = true
		}
		return cmd
	case console.NavigatedMsg:
		if m.Err != nil {
			a.notify.Error(fmt.Sprintf("Something went wrong opening %s: %v", m.URL, m.Err), console.SeverityWarning)
		} else {
			a.notify.Success("Opened " + m.URL)
		}
		return nil
	case dashboardMsg:
		if m.err != nil {
			a.fail("loading the dashboard", m.err)
			return nil
		}
		a.dashboard = m.dashboard
		return nil
	case activityMsg:
		if m.err != nil {
			a.log.WithError(m.err).Warn("load activity")
			return nil
		}
		a.history = m.entries
		return nil
	case activityRecordedMsg:
		if m.err != nil {
			a.log.WithError(m.err).Warn("record activity")
		}
		if a.route == routeActivity {
			return a.loadActivity()
		}
		return nil
	case snapshotMsg:
		a.applySnapshot(m)
		return nil
	case snapshotSavedMsg:
		if m.err != nil {
			a.log.WithError(m.err).Warn("save snapshot")
		}
		return nil
	case quickFindMsg:
		if i := slices.IndexFunc(a.apps.Page().Items, func(app api.Application) bool { return app.ID == m.id }); i >= 0 {
			a.appCursor = i
		}
		return nil
	}

	if a.apps.Owns(msg) {
		cmd := a.apps.Update(msg)
		if _, dialog := msg.(console.DialogResultMsg); !dialog && !a.apps.Loading() {
			return tea.Batch(cmd, a.saveSnapshot())
		}
		return cmd
	}
	if a.variants != nil && a.variants.Owns(msg) {
		return a.variants.Update(msg)
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}
	if top := a.screens.top(); top != nil {
		next, cmd, pop := top.Update(msg)
		if pop {
			a.screens.pop()
		} else {
			a.screens.replaceTop(next)
		}
		return cmd
	}

	switch action := a.keys.Action(msg, a.route.scope()); action {
	case "quit":
		return a.quit()
	case "route-dashboard":
		return a.navigate(routeDashboard)
	case "route-applications":
		return a.navigate(routeApplications)
	case "route-variants":
		return a.navigate(routeVariants)
	case "route-activity":
		return a.navigate(routeActivity)
	case "up":
		a.moveCursor(-1)
	case "down":
		a.moveCursor(1)
	case "create", "edit", "remove":
		if a.session.IsProcessingData() {
			a.notify.Error("Wait for the pending change to finish.", console.SeverityWarning)
			return nil
		}
		return a.listAction(action)
	case "next-page":
		p := a.apps.Page()
		if p.Current < a.apps.PageCount() {
			return a.apps.ChangePage(p.Current + 1)
		}
	case "prev-page":
		if p := a.apps.Page(); p.Current > 1 {
			return a.apps.ChangePage(p.Current - 1)
		}
	case "open":
		if app, ok := a.currentApplication(); ok {
			return a.openVariants(app)
		}
	case "find":
		a.screens.push(newFindScreen(a.apps.Page().Items))
	case "back":
		return a.navigate(routeApplications)
	case "reload":
		return a.loadRoute(a.route)
	case "account":
		return a.session.AccountManagement()
	}
	return nil
}

// navigate switches to r. The route's data loads between the start and success
// route messages, so the loading marker covers the whole transition.
func (a *App) navigate(r route) tea.Cmd {
	if r == routeVariants && a.variants == nil {
		a.notify.Error("Select an application first.", console.SeverityWarning)
		return nil
	}
	a.route = r
	to := a.path(r)
	return tea.Sequence(
		func() tea.Msg { return console.RouteChangeStartMsg{To: to} },
		a.loadRoute(r),
		func() tea.Msg { return console.RouteChangeSuccessMsg{To: to, Section: r.section()} },
	)
}

func (a *App) path(r route) string {
	if r == routeVariants {
		return "/applications/" + a.selected.ID + "/variants"
	}
	return "/" + r.section()
}

func (a *App) loadRoute(r route) tea.Cmd {
	switch r {
	case routeApplications:
		return a.apps.Reload()
	case routeVariants:
		if a.variants == nil {
			return nil
		}
		return a.variants.Reload()
	case routeActivity:
		return a.loadActivity()
	default:
		return a.loadDashboard()
	}
}

func (a *App) openVariants(app api.Application) tea.Cmd {
	if a.variants != nil {
		a.variants.Close()
	}
	a.selected = app
	a.varCursor = 0
	a.variants = console.NewList[api.AndroidVariant](a.ctx, a.client.AndroidVariants(app.ID), a.dialogs, a.notify, a.state, console.ListConfig{
		Noun:    "android variant",
		Timeout: a.cfg.Server.RequestTimeout,
		Templates: console.DialogTemplates{
			Create: tmplVariantForm,
			Edit:   tmplVariantForm,
			Remove: tmplVariantRemove,
		},
	})
	return a.navigate(routeVariants)
}

func (a *App) listAction(action string) tea.Cmd {
	switch a.route {
	case routeApplications:
		return entityAction(a.apps, action, a.appCursor)
	case routeVariants:
		if a.variants != nil {
			return entityAction(a.variants, action, a.varCursor)
		}
	}
	return nil
}

func entityAction[E console.Entity[E]](l *console.ListController[E], action string, cursor int) tea.Cmd {
	if action == "create" {
		return l.Create()
	}
	items := l.Page().Items
	if cursor < 0 || cursor >= len(items) {
		return nil
	}
	switch action {
	case "edit":
		return l.Edit(items[cursor])
	case "remove":
		return l.Remove(items[cursor])
	}
	return nil
}

func (a *App) listLoading() bool {
	return a.apps.Loading() || (a.variants != nil && a.variants.Loading())
}

func (a *App) currentApplication() (api.Application, bool) {
	items := a.apps.Page().Items
	if a.appCursor < 0 || a.appCursor >= len(items) {
		return api.Application{}, false
	}
	return items[a.appCursor], true
}

func (a *App) moveCursor(step int) {
	switch a.route {
	case routeApplications:
		a.appCursor += step
	case routeVariants:
		a.varCursor += step
	case routeActivity:
		a.actCursor += step
	}
	a.clampCursors()
}

func (a *App) clampCursors() {
	clamp := func(c, n int) int { return max(min(c, n-1), 0) }
	a.appCursor = clamp(a.appCursor, len(a.apps.Page().Items))
	if a.variants != nil {
		a.varCursor = clamp(a.varCursor, len(a.variants.Page().Items))
	}
	a.actCursor = clamp(a.actCursor, len(a.history))
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.Close()
	return tea.Quit
}

// fail reports a failed load the way the list controllers report theirs.
func (a *App) fail(action string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	a.notify.Error(fmt.Sprintf("Something went wrong %s: %v", action, err), console.SeverityDanger)
}

func (a *App) loadDashboard() tea.Cmd {
	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.Server.RequestTimeout)
	client := a.client
	return func() tea.Msg {
		defer cancel()
		d, err := client.Dashboard(ctx)
		return dashboardMsg{dashboard: d, err: err}
	}
}

func (a *App) loadActivity() tea.Cmd {
	repo, ctx := a.activity, a.ctx
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := repo.List(ctx, activityShown)
		return activityMsg{entries: entries, err: err}
	}
}

func (a *App) restoreSnapshot() tea.Cmd {
	repo, ctx := a.snaps, a.ctx
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		items, snap, err := store.LoadPage[api.Application](ctx, repo, snapshotApplications)
		return snapshotMsg{items: items, snap: snap, err: err}
	}
}

// applySnapshot paints the stored page unless a live page already arrived.
func (a *App) applySnapshot(m snapshotMsg) {
	if m.err != nil {
		if !errors.Is(m.err, store.ErrNotFound) {
			a.log.WithError(m.err).Warn("restore snapshot")
		}
		return
	}
	if len(a.apps.Page().Items) > 0 || a.apps.Loading() {
		return
	}
	a.apps.Seed(m.items, m.snap.Total, m.snap.Page)
}

func (a *App) saveSnapshot() tea.Cmd {
	repo, ctx := a.snaps, a.ctx
	if repo == nil {
		return nil
	}
	p := a.apps.Page()
	return func() tea.Msg {
		return snapshotSavedMsg{err: store.SavePage(ctx, repo, snapshotApplications, p.Current, p.Total, p.Items)}
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	width, height := max(a.width, 20), max(a.height, 8)
	header := a.renderHeader(width)
	status := a.renderStatus(width)
	footer := a.renderFooter(width)
	bodyHeight := max(height-3, 1)
	body := a.renderRoute(width, bodyHeight)
	if top := a.screens.top(); top != nil {
		body = renderPopup(body, top.View(max(20, width-12), max(6, bodyHeight-4)), width, bodyHeight)
	}
	body = fitHeight(body, bodyHeight)
	view := strings.Join([]string{header, status, body, footer}, "\n")
	return appStyle.Width(width).MaxWidth(width).Render(view)
}
