package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/adapter"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *adapter.Config
	logger     *slog.Logger
	logCloser  io.Closer
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration and installs the logger once per process
func (c *commandContext) ensureConfig() (*adapter.Config, error) {
	c.configOnce.Do(func() {
		var dirs []string
		if c.configFlag != nil {
			if dir := strings.TrimSpace(*c.configFlag); dir != "" {
				dirs = append(dirs, dir)
			}
		}
		cfg, err := adapter.LoadConfig(dirs...)
		if err != nil {
			c.configErr = fmt.Errorf("failed to load config: %w", err)
			return
		}

		logger, closer, err := adapter.SetupLogger(&cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = adapter.NullLogger()
			closer = nil
		}
		slog.SetDefault(logger)

		c.config = cfg
		c.logger = logger
		c.logCloser = closer
	})
	return c.config, c.configErr
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// stdoutIsTerminal is swapped out by tests
var stdoutIsTerminal = func() bool {
	return isTerminal(os.Stdout)
}

var stdinIsTerminal = func() bool {
	return isTerminal(os.Stdin)
}
