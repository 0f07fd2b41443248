package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jask/upsconsole/internal/api"
	"github.com/jask/upsconsole/internal/config"
	"github.com/jask/upsconsole/internal/console"
	"github.com/jask/upsconsole/internal/identity"
	"github.com/jask/upsconsole/internal/secrets"
	"github.com/jask/upsconsole/internal/store"
	"github.com/jask/upsconsole/internal/tui"
)

const activityKept = 1000

// cliEnv is what every command needs once configuration has been read.
type cliEnv struct {
	cfg      config.Config
	log      *logrus.Logger
	closeLog func()
	secrets  *secrets.Store
	tracker  *api.PendingTracker
	client   *api.Client
	id       identity.Identity
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "upsconsole",
		Short:         "Administer a UnifiedPush server",
		Long:          "upsconsole manages the push applications and variants of a UnifiedPush server.\nRun without a subcommand to open the interactive console.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(v)
			if err != nil {
				return err
			}
			defer env.closeLog()
			return runConsole(cmd.Context(), env)
		},
	}

	pf := root.PersistentFlags()
	pf.String("server", "", "push server base URL (server.url)")
	pf.String("auth-server", "", "identity provider base URL (auth.server_url)")
	pf.Int("page-size", 0, "applications per page (ui.page_size)")
	pf.String("log-level", "", "log level (log.level)")
	for key, flag := range map[string]string{
		"server.url":      "server",
		"auth.server_url": "auth-server",
		"ui.page_size":    "page-size",
		"log.level":       "log-level",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newAppsCmd(v),
		newWhoamiCmd(v),
		newAccountCmd(v),
		newLoginCmd(v),
		newLogoutCmd(v),
		newConfigCmd(v),
	)
	return root
}

// setup loads configuration and builds the logger, token and API client.
func setup(v *viper.Viper) (*cliEnv, error) {
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	env := &cliEnv{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		secrets:  secrets.New(""),
		tracker:  api.NewPendingTracker(),
	}
	token := env.token()
	env.id, err = identity.Parse(token, cfg.Auth.ServerURL)
	if err != nil {
		if !errors.Is(err, identity.ErrNoToken) {
			log.WithError(err).Warn("unreadable token, continuing anonymously")
		}
		env.id = identity.Anonymous(cfg.Auth.ServerURL)
	}
	env.client = api.NewClient(cfg.Server.URL,
		api.WithToken(token),
		api.WithPageSize(cfg.UI.PageSize),
		api.WithLogger(log),
		api.WithTracker(env.tracker),
	)
	log.WithFields(logrus.Fields{"server": cfg.Server.URL, "user": env.id.PreferredUsername}).Debug("configured")
	return env, nil
}

// token prefers the configured environment variable over the stored token.
func (env *cliEnv) token() string {
	if env := env.cfg.Auth.TokenEnv; env != "" {
		if t := os.Getenv(env); t != "" {
			return t
		}
	}
	c, err := env.secrets.Get(env.cfg.Server.URL)
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		env.log.WithError(err).Warn("read stored token")
	}
	return c.Token
}

func (env *cliEnv) accountSettings() console.AccountSettings {
	return console.AccountSettings{Realm: env.cfg.Auth.Realm, Referrer: env.cfg.Auth.Referrer}
}

// newLogger writes to the configured file; the console owns the terminal.
func newLogger(c config.LogConfig) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.Path == "" {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	log.SetOutput(f)
	return log, func() { _ = f.Close() }, nil
}

func runConsole(ctx context.Context, env *cliEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := store.Open(env.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	activity := store.NewActivityRepo(db)
	if n, err := activity.Prune(ctx, activityKept); err != nil {
		env.log.WithError(err).Warn("prune activity")
	} else if n > 0 {
		env.log.WithField("removed", n).Debug("pruned activity")
	}

	// the browser launcher must not write over the alt screen
	browser.Stdout, browser.Stderr = io.Discard, io.Discard

	session := console.NewSession(&console.AppState{}, env.id, env.accountSettings(), console.BrowserNavigator{}, env.tracker)
	model := tui.New(ctx, env.cfg, tui.Deps{
		Client:    env.client,
		Session:   session,
		Activity:  activity,
		Snapshots: store.NewSnapshotRepo(db),
		Log:       env.log,
	})
	defer model.Close()

	env.log.Info("console started")
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	env.log.Info("console stopped")
	return nil
}
