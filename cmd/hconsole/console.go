package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/hconsole/core"
	"pkt.systems/hconsole/internal/appconfig"
	"pkt.systems/hconsole/internal/logx"
	"pkt.systems/hconsole/internal/theme"
	"pkt.systems/hconsole/internal/transport"
	"pkt.systems/hconsole/tty"
	"pkt.systems/pslog"
)

var errUsage = errors.New("usage: hconsole <host> <port>")

// parseTarget validates the positional host and port.
func parseTarget(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, errUsage
	}
	host := strings.TrimSpace(args[0])
	if host == "" {
		return "", 0, errUsage
	}
	port, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: invalid port %q", errUsage, args[1])
	}
	return host, port, nil
}

func runConsole(cmd *cobra.Command, cfgPath string, timeout time.Duration, args []string) error {
	host, port, err := parseTarget(args)
	if err != nil {
		usageTheme := theme.New(cmd.ErrOrStderr(), theme.Lookup(theme.DefaultPalette))
		fmt.Fprintln(cmd.ErrOrStderr(), usageTheme.Error(err.Error()))
		return err
	}
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Timeouts.CommandMillis = int(timeout / time.Millisecond)
	}

	ctx, closeLog, err := withLogFile(cmd.Context(), cfg.Logging.File)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = logx.ContextWithTarget(ctx, host, port)
	logger := pslog.Ctx(ctx)

	term, err := tty.OpenConsole(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := term.Restore(); err != nil {
			logger.Warn("terminal restore failed", "err", err)
		}
	}()
	if !term.IsTerminal() {
		logger.Info("console input is not a terminal")
	}

	th := theme.New(term, theme.Lookup(cfg.Theme))
	editor := tty.NewEditor(term, tty.Options{PollInterval: cfg.PollInterval(), Logger: logger})
	dial := func(ctx context.Context) (core.Conn, error) {
		client, err := transport.Dial(ctx, host, port, transport.Options{
			Path:      cfg.Transport.Path,
			TLS:       cfg.Transport.TLS,
			ReadLimit: cfg.Transport.ReadLimitBytes,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	console := core.NewConsole(term, editor, dial, core.Options{
		Host:           host,
		Port:           port,
		Prompt:         cfg.Prompt,
		DateLayout:     cfg.DateFormat,
		PageSize:       cfg.Query.PageSize,
		ConnectTimeout: cfg.ConnectTimeout(),
		CommandTimeout: cfg.CommandTimeout(),
		Recheck:        cfg.Recheck(),
		Theme:          th,
	})
	return console.Run(ctx)
}

// withLogFile swaps the context logger for one writing to path. An empty path
// keeps the current logger.
func withLogFile(ctx context.Context, path string) (context.Context, func(), error) {
	if path == "" {
		return ctx, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return ctx, func() {}, fmt.Errorf("open log file: %w", err)
	}
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(file),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel}),
	)
	return pslog.ContextWithLogger(ctx, logger), func() { _ = file.Close() }, nil
}
