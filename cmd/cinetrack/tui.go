package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/tui"
)

// runTUI opens the interactive library for the saved session
func runTUI(cmd *cobra.Command, c *commandContext) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandCtx(cmd)
	sess, err := a.start(ctx, stdinIsTerminal())
	if err != nil {
		return err
	}
	if sess.FellBack {
		cmd.PrintErrln(fallbackNotice)
	}
	a.logger.Info("starting TUI", "version", Version, "mode", sess.Mode)

	observer := tui.NewLibraryObserver(a.lib)
	defer observer.Close()

	model := tui.NewModel(tui.Options{
		Service:      a.service,
		Observer:     observer,
		SessionLabel: sessionLabel(sess),
		SignOut:      a.signOut,
	})

	loggedOut, err := tui.Run(model)
	if err != nil {
		a.logger.Error("TUI error", "error", err)
		return err
	}
	if loggedOut {
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	}
	a.logger.Info("shutting down")
	return nil
}
