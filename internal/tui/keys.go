package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Key scopes. A binding with no scopes applies everywhere.
const (
	scopeDashboard    = "route:dashboard"
	scopeApplications = "route:applications"
	scopeVariants     = "route:variants"
	scopeActivity     = "route:activity"
	scopeForm         = "dialog:form"
	scopeConfirm      = "dialog:confirm"
	scopeFind         = "dialog:find"
)

var listScopes = []string{scopeApplications, scopeVariants}

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type KeyRegistry struct {
	bindings []KeyBinding
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

// Action returns the action bound to msg in scope, or "".
func (r *KeyRegistry) Action(msg tea.KeyMsg, scope string) string {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return b.Action
			}
		}
	}
	return ""
}

// Help renders the bindings of scope as key.Help pairs for the footer.
func (r *KeyRegistry) Help(scope string) []key.Help {
	var out []key.Help
	seen := map[string]bool{}
	for _, b := range r.BindingsForScope(scope) {
		if len(b.Keys) == 0 || b.Description == "" || seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		kb := key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(strings.Join(b.Keys, "/"), b.Description))
		out = append(out, kb.Help())
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}

func DefaultKeyBindings() []KeyBinding {
	routes := []string{scopeDashboard, scopeApplications, scopeVariants, scopeActivity}
	return []KeyBinding{
		{Keys: []string{"q"}, Action: "quit", Description: "quit", Scopes: routes},
		{Keys: []string{"1"}, Action: "route-dashboard", Description: "dashboard", Scopes: routes},
		{Keys: []string{"2"}, Action: "route-applications", Description: "applications", Scopes: routes},
		{Keys: []string{"3"}, Action: "route-variants", Description: "variants", Scopes: routes},
		{Keys: []string{"4"}, Action: "route-activity", Description: "activity", Scopes: routes},
		{Keys: []string{"j", "down"}, Action: "down", Description: "down", Scopes: append(slices.Clone(listScopes), scopeActivity)},
		{Keys: []string{"k", "up"}, Action: "up", Description: "up", Scopes: append(slices.Clone(listScopes), scopeActivity)},
		{Keys: []string{"n"}, Action: "create", Description: "new", Scopes: listScopes},
		{Keys: []string{"e"}, Action: "edit", Description: "edit", Scopes: listScopes},
		{Keys: []string{"x", "delete"}, Action: "remove", Description: "remove", Scopes: listScopes},
		{Keys: []string{"]", "pgdown"}, Action: "next-page", Description: "next page", Scopes: []string{scopeApplications}},
		{Keys: []string{"[", "pgup"}, Action: "prev-page", Description: "prev page", Scopes: []string{scopeApplications}},
		{Keys: []string{"enter"}, Action: "open", Description: "variants", Scopes: []string{scopeApplications}},
		{Keys: []string{"/"}, Action: "find", Description: "find", Scopes: []string{scopeApplications}},
		{Keys: []string{"esc"}, Action: "back", Description: "back", Scopes: []string{scopeVariants}},
		{Keys: []string{"r"}, Action: "reload", Description: "reload", Scopes: routes},
		{Keys: []string{"a"}, Action: "account", Description: "account", Scopes: routes},
		{Keys: []string{"tab", "shift+tab"}, Action: "field", Description: "next field", Scopes: []string{scopeForm}},
		{Keys: []string{"enter"}, Action: "confirm", Description: "save", Scopes: []string{scopeForm, scopeFind}},
		{Keys: []string{"y", "enter"}, Action: "confirm", Description: "confirm", Scopes: []string{scopeConfirm}},
		{Keys: []string{"esc"}, Action: "cancel", Description: "cancel", Scopes: []string{scopeForm, scopeFind}},
		{Keys: []string{"n", "esc"}, Action: "cancel", Description: "cancel", Scopes: []string{scopeConfirm}},
	}
}
