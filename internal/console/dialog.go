package console

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type DialogKind string

const (
	DialogCreate DialogKind = "create"
	DialogEdit   DialogKind = "edit"
	DialogRemove DialogKind = "remove"
)

type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
	DialogConfirmed
	DialogCancelled
)

func (s DialogState) String() string {
	switch s {
	case DialogOpen:
		return "open"
	case DialogConfirmed:
		return "confirmed"
	case DialogCancelled:
		return "cancelled"
	default:
		return "closed"
	}
}

type Outcome int

const (
	Cancelled Outcome = iota
	Confirmed
)

// DialogRequest describes the dialog a controller wants opened.
type DialogRequest struct {
	SessionID string
	Kind      DialogKind
	Template  string
	Value     any
}

// DialogResultMsg resolves a dialog session.
type DialogResultMsg struct {
	SessionID string
	Outcome   Outcome
	Value     any
}

// Confirm resolves session id with the value the user submitted.
func Confirm(id string, value any) tea.Cmd {
	return func() tea.Msg { return DialogResultMsg{SessionID: id, Outcome: Confirmed, Value: value} }
}

// Cancel resolves session id as dismissed by the user.
func Cancel(id string) tea.Cmd {
	return func() tea.Msg { return DialogResultMsg{SessionID: id, Outcome: Cancelled} }
}

// DialogSession pairs a dialog's target with its pending result.
type DialogSession[E any] struct {
	ID       string
	Kind     DialogKind
	Template string
	Target   E
	state    DialogState
}

func newSession[E any](kind DialogKind, template string, target E) *DialogSession[E] {
	return &DialogSession[E]{ID: uuid.NewString(), Kind: kind, Template: template, Target: target, state: DialogOpen}
}

func (s *DialogSession[E]) State() DialogState { return s.state }

// resolve moves an open session to its outcome. A session resolves once.
func (s *DialogSession[E]) resolve(o Outcome) error {
	if s.state != DialogOpen {
		return fmt.Errorf("dialog %s already %s", s.ID, s.state)
	}
	if o == Confirmed {
		s.state = DialogConfirmed
	} else {
		s.state = DialogCancelled
	}
	return nil
}

func (s *DialogSession[E]) close() { s.state = DialogClosed }

func (s *DialogSession[E]) request() DialogRequest {
	return DialogRequest{SessionID: s.ID, Kind: s.Kind, Template: s.Template, Value: s.Target}
}
