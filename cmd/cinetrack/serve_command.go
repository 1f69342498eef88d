package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var dbPath string
	var allowSignup bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the collection server for remote libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := server.Options{
				Addr:           cfg.Serve.Addr,
				DBPath:         cfg.Serve.DBPath,
				JWTSecret:      cfg.Serve.JWTSecret,
				TokenTTL:       cfg.Serve.TokenTTL,
				AllowSignup:    cfg.Serve.AllowSignup,
				CORSOrigins:    cfg.Serve.CORSOrigins,
				LoginRateLimit: cfg.Serve.LoginRateLimit,
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				opts.Addr = addr
			}
			if flags.Changed("db") {
				opts.DBPath = dbPath
			}
			if flags.Changed("allow-signup") {
				opts.AllowSignup = allowSignup
			}
			if opts.JWTSecret == "" {
				ctx.logger.Warn("serve.jwt_secret not set, tokens will not survive a restart")
			}

			srv, err := server.New(opts, ctx.logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving collections on %s\n", opts.Addr)
			if err := srv.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from serve.db_path)")
	cmd.Flags().BoolVar(&allowSignup, "allow-signup", false, "Allow new accounts to register")
	return cmd
}
