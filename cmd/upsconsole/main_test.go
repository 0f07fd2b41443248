package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/jask/upsconsole/internal/api"
)

type fakeUPS struct {
	mu    sync.Mutex
	apps  map[string]api.Application
	order []string
	auth  []string
}

func (f *fakeUPS) record(r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()
}

func (f *fakeUPS) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) == 0 {
		return ""
	}
	return f.auth[len(f.auth)-1]
}

func (f *fakeUPS) app(id string) (api.Application, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	return a, ok
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func newFakeUPS(t *testing.T) (*fakeUPS, string) {
	t.Helper()
	f := &fakeUPS{apps: map[string]api.Application{}}
	for _, a := range []api.Application{
		{ID: "a1", Name: "Shop", Description: "storefront", MasterSecret: "s1"},
		{ID: "a2", Name: "Weather"},
	} {
		f.apps[a.ID] = a
		f.order = append(f.order, a.ID)
	}

	r := mux.NewRouter()
	rest := r.PathPrefix("/ag-push/rest").Subrouter()
	rest.HandleFunc("/applications", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []api.Application{}
		for _, id := range f.order {
			out = append(out, f.apps[id])
		}
		w.Header().Set("total", "2")
		reply(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	rest.HandleFunc("/applications", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var a api.Application
		_ = json.NewDecoder(r.Body).Decode(&a)
		f.mu.Lock()
		defer f.mu.Unlock()
		a.ID = "a3"
		f.apps[a.ID] = a
		f.order = append(f.order, a.ID)
		reply(w, http.StatusCreated, a)
	}).Methods(http.MethodPost)
	rest.HandleFunc("/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		a, ok := f.app(mux.Vars(r)["id"])
		if !ok {
			reply(w, http.StatusNotFound, map[string]string{"message": "no such application"})
			return
		}
		reply(w, http.StatusOK, a)
	}).Methods(http.MethodGet)
	rest.HandleFunc("/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var patch api.Application
		_ = json.NewDecoder(r.Body).Decode(&patch)
		f.mu.Lock()
		defer f.mu.Unlock()
		a := f.apps[mux.Vars(r)["id"]]
		a.Name, a.Description = patch.Name, patch.Description
		f.apps[a.ID] = a
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPut)
	rest.HandleFunc("/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.apps, mux.Vars(r)["id"])
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv.URL + "/ag-push"
}

func signToken(t *testing.T, username string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"preferred_username": username,
		"sub":                "user-" + username,
		"email":              username + "@example.com",
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// isolate points every file the CLI touches into a temporary home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("UPSCONSOLE_CONFIG", filepath.Join(home, "config.toml"))
	t.Setenv("UPSCONSOLE_TOKEN", "")
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAppsList(t *testing.T) {
	isolate(t)
	ups, base := newFakeUPS(t)
	t.Setenv("UPSCONSOLE_TOKEN", signToken(t, "admin"))

	out, err := run(t, "apps", "list", "--server", base, "--page-size", "1")
	if err != nil {
		t.Fatalf("apps list: %v", err)
	}
	for _, want := range []string{"Shop", "Weather", "storefront", "Page 1 of 2, 2 applications."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := ups.lastAuth(); !strings.HasPrefix(got, "Bearer ") {
		t.Errorf("Authorization = %q, want a bearer token", got)
	}
}

func TestAppsCreateUpdateDelete(t *testing.T) {
	isolate(t)
	ups, base := newFakeUPS(t)

	out, err := run(t, "apps", "create", "--server", base, "--name", "Inbox", "--description", "mail")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := `Successfully created application "Inbox". (a3)`; !strings.Contains(out, want) {
		t.Fatalf("create output = %q, want %q", out, want)
	}

	out, err = run(t, "apps", "update", "a3", "--server", base, "--name", "Inbox 2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, `Successfully edited application "Inbox 2".`) {
		t.Fatalf("update output = %q", out)
	}
	if a, _ := ups.app("a3"); a.Name != "Inbox 2" || a.Description != "mail" {
		t.Fatalf("stored = %+v, want renamed with description kept", a)
	}

	out, err = run(t, "apps", "rm", "a3", "--server", base)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `Successfully removed application "Inbox 2".`) {
		t.Fatalf("delete output = %q", out)
	}
	if _, ok := ups.app("a3"); ok {
		t.Fatal("application still stored after delete")
	}
}

func TestAppsShowAndMissing(t *testing.T) {
	isolate(t)
	_, base := newFakeUPS(t)

	out, err := run(t, "apps", "show", "a1", "--server", base)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Master secret: s1") {
		t.Fatalf("show output = %q", out)
	}
	if _, err := run(t, "apps", "show", "nope", "--server", base); err == nil {
		t.Fatal("showing a missing application should fail")
	}
}

func TestCreateRequiresName(t *testing.T) {
	isolate(t)
	_, base := newFakeUPS(t)
	if _, err := run(t, "apps", "create", "--server", base); err == nil {
		t.Fatal("create without --name should fail")
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	isolate(t)
	_, base := newFakeUPS(t)

	out, err := run(t, "whoami", "--server", base)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if strings.TrimSpace(out) != "anonymous" {
		t.Fatalf("whoami before login = %q, want anonymous", out)
	}

	if _, err := run(t, "login", "--server", base, "--token", "not-a-jwt"); err == nil {
		t.Fatal("login with a malformed token should fail")
	}
	out, err = run(t, "login", "--server", base, "--token", signToken(t, "ops"))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "as ops.") {
		t.Fatalf("login output = %q", out)
	}

	out, err = run(t, "whoami", "--server", base)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.HasPrefix(out, "ops\n") || !strings.Contains(out, "ops@example.com") || !strings.Contains(out, "login:") {
		t.Fatalf("whoami after login = %q", out)
	}

	out, err = run(t, "logout", "--server", base)
	if err != nil || !strings.HasPrefix(out, "Logged out ops of ") {
		t.Fatalf("logout = %q, %v", out, err)
	}
	out, err = run(t, "logout", "--server", base)
	if err != nil || !strings.HasPrefix(out, "Not logged in") {
		t.Fatalf("second logout = %q, %v", out, err)
	}
}

func TestAccountURL(t *testing.T) {
	isolate(t)
	out, err := run(t, "account", "--auth-server", "https://sso.example.com/auth/")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	want := "https://sso.example.com/auth/realms/aerogear/account?referrer=unified-push-server-js"
	if strings.TrimSpace(out) != want {
		t.Fatalf("account = %q, want %q", out, want)
	}
}

func TestConfigInitWritesFile(t *testing.T) {
	home := isolate(t)
	out, err := run(t, "config", "init", "--page-size", "12")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	path := filepath.Join(home, "config.toml")
	if !strings.Contains(out, path) {
		t.Fatalf("config init output = %q, want path %q", out, path)
	}
	out, err = run(t, "config", "path")
	if err != nil || strings.TrimSpace(out) != path {
		t.Fatalf("config path = %q, %v", out, err)
	}
}
