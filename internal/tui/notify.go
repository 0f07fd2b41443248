package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jask/upsconsole/internal/console"
	"github.com/jask/upsconsole/internal/store"
)

const levelSuccess = "success"

// notifier shows the latest message in the status bar and queues every message for
// the activity log.
type notifier struct {
	text   string
	isErr  bool
	queued []store.Activity
	log    logrus.FieldLogger
}

func (n *notifier) Success(message string) {
	n.text, n.isErr = message, false
	n.queued = append(n.queued, store.Activity{At: store.Now(), Level: levelSuccess, Message: message})
	n.log.WithField("level", levelSuccess).Info(message)
}

func (n *notifier) Error(message string, severity console.Severity) {
	n.text, n.isErr = message, true
	n.queued = append(n.queued, store.Activity{At: store.Now(), Level: string(severity), Message: message})
	n.log.WithField("severity", severity).Warn(message)
}

func (n *notifier) drain() []store.Activity {
	out := n.queued
	n.queued = nil
	return out
}

type activityRecordedMsg struct {
	err error
}

// recordActivity writes entries to repo off the UI goroutine.
func recordActivity(ctx context.Context, repo *store.ActivityRepo, entries []store.Activity) tea.Cmd {
	if repo == nil || len(entries) == 0 {
		return nil
	}
	return func() tea.Msg {
		for _, e := range entries {
			if _, err := repo.Record(ctx, e); err != nil {
				return activityRecordedMsg{err: err}
			}
		}
		return activityRecordedMsg{}
	}
}
