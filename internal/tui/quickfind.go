package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/upsconsole/internal/api"
)

const (
	findResults   = 5
	containsBonus = 1000
)

// rankApplications orders apps by how closely their name matches query. Names
// containing the query come first; the rest follow by edit distance.
func rankApplications(query string, apps []api.Application) []api.Application {
	q := strings.ToLower(strings.TrimSpace(query))
	type scored struct {
		app   api.Application
		score int
	}
	ranked := make([]scored, 0, len(apps))
	for _, a := range apps {
		name := strings.ToLower(a.Name)
		score := levenshtein.ComputeDistance(q, name)
		if q != "" && strings.Contains(name, q) {
			score = len(name) - len(q) - containsBonus
		}
		ranked = append(ranked, scored{app: a, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score < ranked[j].score })
	out := make([]api.Application, len(ranked))
	for i, r := range ranked {
		out[i] = r.app
	}
	return out
}

type quickFindMsg struct {
	id string
}

// findScreen jumps to an application on the current page by name.
type findScreen struct {
	input   textinput.Model
	apps    []api.Application
	matches []api.Application
	cursor  int
}

func newFindScreen(apps []api.Application) *findScreen {
	in := textinput.New()
	in.Cursor.SetMode(cursor.CursorStatic)
	in.Prompt = "/"
	in.Placeholder = "application name"
	in.Focus()
	s := &findScreen{input: in, apps: apps}
	s.rerank()
	return s
}

func (s *findScreen) Title() string { return "Find application" }
func (s *findScreen) Scope() string { return scopeFind }

func (s *findScreen) rerank() {
	s.matches = rankApplications(s.input.Value(), s.apps)
	if len(s.matches) > findResults {
		s.matches = s.matches[:findResults]
	}
	s.cursor = min(s.cursor, max(len(s.matches)-1, 0))
}

func (s *findScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return s, nil, true
		case "up", "ctrl+p":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil, false
		case "down", "ctrl+n":
			if s.cursor < len(s.matches)-1 {
				s.cursor++
			}
			return s, nil, false
		case "enter":
			if len(s.matches) == 0 {
				return s, nil, true
			}
			id := s.matches[s.cursor].ID
			return s, func() tea.Msg { return quickFindMsg{id: id} }, true
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.rerank()
	return s, cmd, false
}

func (s *findScreen) View(width, height int) string {
	lines := []string{titleStyle.Render(s.Title()), "", s.input.View(), ""}
	if len(s.matches) == 0 {
		lines = append(lines, mutedStyle.Render("No applications on this page"))
	}
	for i, a := range s.matches {
		line := fmt.Sprintf("  %s", a.Name)
		if i == s.cursor {
			line = cursorStyle.Render("> " + a.Name)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
