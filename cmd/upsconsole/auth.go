package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jask/upsconsole/internal/identity"
	"github.com/jask/upsconsole/internal/secrets"
)

func newWhoamiCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(v)
			if err != nil {
				return err
			}
			defer env.closeLog()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, env.id.PreferredUsername)
			if env.id.Email != "" {
				fmt.Fprintf(out, "email:   %s\n", env.id.Email)
			}
			if env.id.Subject != "" {
				fmt.Fprintf(out, "subject: %s\n", env.id.Subject)
			}
			if c, err := env.secrets.Get(env.cfg.Server.URL); err == nil && c.Token == env.id.RawToken {
				fmt.Fprintf(out, "login:   %s\n", c.StoredAt.Local().Format(env.cfg.UI.DateFormat))
			}
			return nil
		},
	}
}

func newAccountCmd(v *viper.Viper) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Print or open the account management page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(v)
			if err != nil {
				return err
			}
			defer env.closeLog()
			s := env.accountSettings()
			url := env.id.AccountURL(s.Realm, s.Referrer)
			fmt.Fprintln(cmd.OutOrStdout(), url)
			if open {
				return browser.OpenURL(url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the page in the browser")
	return cmd
}

func newLoginCmd(v *viper.Viper) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an ID token for the configured server",
		Long:  "login stores a bearer token for the configured server. Pass --token - to read it from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(v)
			if err != nil {
				return err
			}
			defer env.closeLog()
			if token == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			id, err := identity.Parse(token, env.cfg.Auth.ServerURL)
			if err != nil {
				return err
			}
			cred := secrets.Credential{Token: token, Username: id.PreferredUsername}
			if err := env.secrets.Put(env.cfg.Server.URL, cred); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			env.log.WithField("user", id.PreferredUsername).Info("logged in")
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s.\n", env.cfg.Server.URL, id.PreferredUsername)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ID token, or - for stdin")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for the configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(v)
			if err != nil {
				return err
			}
			defer env.closeLog()
			c, err := env.secrets.Remove(env.cfg.Server.URL)
			if errors.Is(err, secrets.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "Not logged in to %s.\n", env.cfg.Server.URL)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s of %s (logged in %s).\n",
				c.Username, env.cfg.Server.URL, c.StoredAt.Local().Format(env.cfg.UI.DateFormat))
			return nil
		},
	}
}
