package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jask/upsconsole/internal/api"
)

type appsOptions struct {
	page        int
	name        string
	description string
}

func newAppsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"applications"},
		Short:   "Manage push applications",
	}
	cmd.AddCommand(
		newAppsListCmd(v),
		newAppsShowCmd(v),
		newAppsCreateCmd(v),
		newAppsUpdateCmd(v),
		newAppsDeleteCmd(v),
	)
	return cmd
}

// withClient runs fn with a configured environment and a request timeout.
func withClient(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, env *cliEnv) error) error {
	env, err := setup(v)
	if err != nil {
		return err
	}
	defer env.closeLog()
	ctx, cancel := context.WithTimeout(cmd.Context(), env.cfg.Server.RequestTimeout)
	defer cancel()
	if err := fn(ctx, env); err != nil {
		env.log.WithError(err).Warn(cmd.CommandPath())
		return err
	}
	return nil
}

func newAppsListCmd(v *viper.Viper) *cobra.Command {
	var opts appsOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, env *cliEnv) error {
				page, err := env.client.Applications().Fetch(ctx, opts.page)
				if err != nil {
					return err
				}
				printApplications(cmd.OutOrStdout(), page, env.client.PageSize())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.page, "page", 1, "page number, starting at 1")
	return cmd
}

func newAppsShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, env *cliEnv) error {
				app, err := env.client.Applications().Get(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:            %s\n", app.ID)
				fmt.Fprintf(out, "Name:          %s\n", app.Name)
				fmt.Fprintf(out, "Description:   %s\n", app.Description)
				fmt.Fprintf(out, "Master secret: %s\n", app.MasterSecret)
				fmt.Fprintf(out, "Developer:     %s\n", app.Developer)
				for _, vs := range app.Variants {
					fmt.Fprintf(out, "Variant:       %s (%s) %s\n", vs.Name, vs.Type, vs.ID)
				}
				return nil
			})
		},
	}
}

func newAppsCreateCmd(v *viper.Viper) *cobra.Command {
	var opts appsOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, env *cliEnv) error {
				app, err := env.client.Applications().Create(ctx, api.Application{Name: opts.name, Description: opts.description})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully created application %q. (%s)\n", app.Name, app.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "application name")
	cmd.Flags().StringVar(&opts.description, "description", "", "application description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAppsUpdateCmd(v *viper.Viper) *cobra.Command {
	var opts appsOptions
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an application's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, env *cliEnv) error {
				apps := env.client.Applications()
				app, err := apps.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					app.Name = opts.name
				}
				if cmd.Flags().Changed("description") {
					app.Description = opts.description
				}
				if err := apps.Update(ctx, app.ID, app); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully edited application %q.\n", app.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "new name")
	cmd.Flags().StringVar(&opts.description, "description", "", "new description")
	cmd.MarkFlagsOneRequired("name", "description")
	return cmd
}

func newAppsDeleteCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Remove an application and its variants",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, env *cliEnv) error {
				apps := env.client.Applications()
				app, err := apps.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := apps.Remove(ctx, app.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed application %q.\n", app.Name)
				return nil
			})
		},
	}
}

func printApplications(w io.Writer, page api.Page[api.Application], pageSize int) {
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "No applications on page %d (total %d).\n", page.Number, page.Total)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION", "VARIANTS")
	for _, a := range page.Items {
		t.Row(a.ID, a.Name, a.Description, strconv.Itoa(len(a.Variants)))
	}
	fmt.Fprintln(w, t.Render())
	pages := 1
	if pageSize > 0 && page.Total > 0 {
		pages = (page.Total + pageSize - 1) / pageSize
	}
	fmt.Fprintf(w, "Page %d of %d, %d applications.\n", page.Number, pages, page.Total)
}
