// Package console holds the console's controllers: the paginated list controller with its
// modal create/edit/remove workflows, and the session/navigation controller.
//
// Controllers follow the bubbletea contract. Operations return a tea.Cmd that does the remote
// work off the UI goroutine; the result comes back as a message that the owning controller
// applies in Update. State is only ever touched from Update, so controllers hold no locks.
//
// Allowed here:
// - page state, dialog sessions, request tokens, notifications
// - contracts for the collaborators (Resource, DialogHost, Notifier, Navigator)
//
// Not allowed here:
// - rendering, key handling or any concrete dialog implementation
package console
