package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"

	"github.com/jask/upsconsole/internal/api"
	"github.com/jask/upsconsole/internal/config"
	"github.com/jask/upsconsole/internal/console"
	"github.com/jask/upsconsole/internal/identity"
	"github.com/jask/upsconsole/internal/store"
)

type fakeUPS struct {
	mu       sync.Mutex
	apps     []api.Application
	variants map[string][]api.AndroidVariant
	posts    int
}

func newFakeUPS(t *testing.T, names ...string) (*fakeUPS, *httptest.Server) {
	t.Helper()
	f := &fakeUPS{variants: map[string][]api.AndroidVariant{}}
	for i, n := range names {
		f.apps = append(f.apps, api.Application{ID: "app-" + strconv.Itoa(i+1), Name: n})
	}
	r := mux.NewRouter()
	rest := r.PathPrefix("/ag-push/rest").Subrouter()
	rest.HandleFunc("/applications", f.list).Methods(http.MethodGet)
	rest.HandleFunc("/applications", f.create).Methods(http.MethodPost)
	rest.HandleFunc("/applications/{id}", f.update).Methods(http.MethodPut)
	rest.HandleFunc("/applications/{id}", f.remove).Methods(http.MethodDelete)
	rest.HandleFunc("/applications/{id}/android", f.listVariants).Methods(http.MethodGet)
	rest.HandleFunc("/metrics/dashboard", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		n := len(f.apps)
		f.mu.Unlock()
		reply(w, http.StatusOK, api.DashboardTotals{Applications: int64(n), Devices: 12, Messages: 40})
	})
	rest.HandleFunc("/metrics/dashboard/warnings", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []api.ApplicationVariant{})
	})
	rest.HandleFunc("/metrics/dashboard/active", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []api.ApplicationActivity{{ID: "app-1", Name: "alpha", TotalReceivers: 9}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeUPS) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	per, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items := []api.Application{}
	if start := page * per; start < len(f.apps) {
		items = f.apps[start:min(start+per, len(f.apps))]
	}
	w.Header().Set("total", strconv.Itoa(len(f.apps)))
	reply(w, http.StatusOK, items)
}

func (f *fakeUPS) create(w http.ResponseWriter, r *http.Request) {
	var in api.Application
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts++
	in.ID = "app-" + strconv.Itoa(len(f.apps)+1)
	f.apps = append(f.apps, in)
	reply(w, http.StatusCreated, in)
}

func (f *fakeUPS) update(w http.ResponseWriter, r *http.Request) {
	var in api.Application
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID == mux.Vars(r)["id"] {
			f.apps[i].Name, f.apps[i].Description = in.Name, in.Description
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.NotFound(w, r)
}

func (f *fakeUPS) remove(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID == mux.Vars(r)["id"] {
			f.apps = append(f.apps[:i], f.apps[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.NotFound(w, r)
}

func (f *fakeUPS) listVariants(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.variants[mux.Vars(r)["id"]]
	if items == nil {
		items = []api.AndroidVariant{}
	}
	reply(w, http.StatusOK, items)
}

func (f *fakeUPS) count() (apps, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.apps), f.posts
}

type fakeNavigator struct {
	visited []string
}

func (n *fakeNavigator) Navigate(url string) error {
	n.visited = append(n.visited, url)
	return nil
}

type testEnv struct {
	app       *App
	ups       *fakeUPS
	activity  *store.ActivityRepo
	snapshots *store.SnapshotRepo
	nav       *fakeNavigator
	tracker   *api.PendingTracker
}

func newTestEnv(t *testing.T, pageSize int, names ...string) *testEnv {
	t.Helper()
	ups, srv := newFakeUPS(t, names...)
	db, err := store.Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Server: config.ServerConfig{URL: srv.URL + "/ag-push", RequestTimeout: 5 * time.Second},
		UI:     config.UIConfig{PageSize: pageSize, DateFormat: "2006-01-02 15:04"},
	}
	tracker := api.NewPendingTracker()
	client := api.NewClient(cfg.Server.URL, api.WithPageSize(pageSize), api.WithTracker(tracker))
	nav := &fakeNavigator{}
	id := identity.Identity{PreferredUsername: "admin", AuthServerURL: "http://sso.local/auth"}
	session := console.NewSession(&console.AppState{}, id, console.AccountSettings{}, nav, tracker)

	env := &testEnv{
		ups:       ups,
		activity:  store.NewActivityRepo(db),
		snapshots: store.NewSnapshotRepo(db),
		nav:       nav,
		tracker:   tracker,
	}
	env.app = New(context.Background(), cfg, Deps{
		Client:    client,
		Session:   session,
		Activity:  env.activity,
		Snapshots: env.snapshots,
	})
	t.Cleanup(env.app.Close)
	return env
}

var cmdType = reflect.TypeOf((tea.Cmd)(nil))

// drain runs cmd and everything it leads to, feeding each message back into the
// app the way the tea runtime would. Batches and sequences run in order.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	steps := 0
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		steps++
		if steps > 500 {
			t.Fatal("commands did not settle")
		}
		msg := c()
		if msg == nil {
			return
		}
		if v := reflect.ValueOf(msg); v.Kind() == reflect.Slice && v.Type().Elem() == cmdType {
			for i := 0; i < v.Len(); i++ {
				run(v.Index(i).Interface().(tea.Cmd))
			}
			return
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, next := a.Update(msg)
		run(next)
	}
	run(cmd)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys one at a time and settles the resulting commands.
func (e *testEnv) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := e.app.Update(keyMsg(k))
		drain(t, e.app, cmd)
	}
}

// typeText types s into whatever has focus.
func (e *testEnv) typeText(t *testing.T, s string) {
	t.Helper()
	_, cmd := e.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	drain(t, e.app, cmd)
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()
	drain(t, e.app, e.app.Init())
}
