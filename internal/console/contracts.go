package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/upsconsole/internal/api"
)

// Entity is a record the console manages.
type Entity[E any] interface {
	Key() string
	Label() string
	// Mutable returns a copy holding only the fields an update may send.
	Mutable() E
}

// Resource performs the remote CRUD calls for one collection.
type Resource[E any] interface {
	Fetch(ctx context.Context, page int) (api.Page[E], error)
	Create(ctx context.Context, e E) (E, error)
	Update(ctx context.Context, id string, patch E) error
	Remove(ctx context.Context, id string) error
}

type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string, severity Severity)
}

// DialogHost opens modal dialogs. The returned command must eventually produce a
// DialogResultMsg carrying req.SessionID, whatever the user does.
type DialogHost interface {
	Open(req DialogRequest) tea.Cmd
}

// Navigator leaves the console for an external page.
type Navigator interface {
	Navigate(url string) error
}

// PendingRequests reports in-flight HTTP calls.
type PendingRequests interface {
	HasMutating() bool
}

// AppState is the ambient state shared by the controllers. One value is created at
// startup and handed to every controller that needs it.
type AppState struct {
	ViewLoading bool
	Section     string
	Username    string
}
