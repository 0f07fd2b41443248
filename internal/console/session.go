package console

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/jask/upsconsole/internal/identity"
)

// RouteChangeStartMsg is sent when the console starts moving to another route.
type RouteChangeStartMsg struct {
	To string
}

// RouteChangeSuccessMsg is sent once the route's data has resolved.
type RouteChangeSuccessMsg struct {
	To      string
	Section string
}

// NavigatedMsg reports the outcome of leaving for an external page.
type NavigatedMsg struct {
	URL string
	Err error
}

// AccountSettings locates the identity provider's account page.
type AccountSettings struct {
	Realm    string
	Referrer string
}

// Session exposes who is signed in and what the console is doing.
type Session struct {
	state    *AppState
	username string
	id       identity.Identity
	account  AccountSettings
	nav      Navigator
	pending  PendingRequests
}

// NewSession reads the display name from id once; a later token refresh does not
// change it.
func NewSession(state *AppState, id identity.Identity, account AccountSettings, nav Navigator, pending PendingRequests) *Session {
	if state == nil {
		state = &AppState{}
	}
	if account.Realm == "" {
		account.Realm = "aerogear"
	}
	if account.Referrer == "" {
		account.Referrer = "unified-push-server-js"
	}
	state.Username = id.PreferredUsername
	return &Session{
		state:    state,
		username: id.PreferredUsername,
		id:       id,
		account:  account,
		nav:      nav,
		pending:  pending,
	}
}

func (s *Session) Username() string { return s.username }

func (s *Session) State() *AppState { return s.state }

// AccountURL is the account-management page on the identity provider.
func (s *Session) AccountURL() string {
	return s.id.AccountURL(s.account.Realm, s.account.Referrer)
}

// AccountManagement leaves the console for the account-management page.
func (s *Session) AccountManagement() tea.Cmd {
	url, nav := s.AccountURL(), s.nav
	return func() tea.Msg {
		if nav == nil {
			return NavigatedMsg{URL: url}
		}
		return NavigatedMsg{URL: url, Err: nav.Navigate(url)}
	}
}

// IsProcessingData reports whether a mutating request is in flight.
func (s *Session) IsProcessingData() bool {
	return s.pending != nil && s.pending.HasMutating()
}

// Update tracks route transitions.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case RouteChangeStartMsg:
		s.state.ViewLoading = true
	case RouteChangeSuccessMsg:
		s.state.ViewLoading = false
		if m.Section != "" {
			s.state.Section = m.Section
		}
	}
	return nil
}

// BrowserNavigator opens pages in the system browser.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(url string) error {
	return browser.OpenURL(url)
}
