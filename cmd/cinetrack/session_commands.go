package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/adapter"
	"github.com/mmcdole/cinetrack/internal/session"
)

const fallbackNotice = "Remote sign-in is disabled on this server; using the local owner library."

func newSessionCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newLoginCommand(ctx),
		newLogoutCommand(ctx),
		newModeCommand(ctx, session.ModeGuest, "Use the on-device guest library"),
		newModeCommand(ctx, session.ModeOwner, "Use the on-device owner library"),
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in to a collection server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if url := strings.TrimSpace(serverURL); url != "" {
				if err := adapter.SetServerURL(cfg, url); err != nil {
					return err
				}
			}
			if !cfg.HasRemote() {
				return errors.New("no collection server configured (pass --server or set remote.server_url)")
			}

			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var username string
			if len(args) == 1 {
				username = args[0]
			}
			sess, err := a.signIn(commandCtx(cmd), username)
			if err != nil {
				return err
			}
			if sess.FellBack {
				fmt.Fprintln(cmd.OutOrStdout(), fallbackNotice)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", sess.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "Collection server URL (saved to the config)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Resume so a remote token can be revoked; a stale one is fine
			if a.cfg.Session.Mode != "" {
				if _, err := a.start(commandCtx(cmd), false); err != nil {
					a.logger.Warn("could not resume session before logout", "error", err)
				}
			}
			if err := a.signOut(commandCtx(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newModeCommand(ctx *commandContext, mode session.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.switchMode(commandCtx(cmd), mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using the %s library.\n", strings.ToLower(sess.Mode.String()))
			return nil
		},
	}
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
