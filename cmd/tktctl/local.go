package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/h1v3-io/tkt/internal/desk"
	"github.com/h1v3-io/tkt/internal/reply"
	"github.com/h1v3-io/tkt/internal/ticket"
)

// ChannelCLI tags exchanges typed into tktctl.
const ChannelCLI = "cli"

// openDesk opens the configured store for a local command. The returned
// func releases the backend.
func openDesk(opts *cliOptions, stderr io.Writer) (*desk.Desk, func(), error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	backend, err := ticket.NewBackend(opts.backend, opts.dataPath)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := backend.(io.Closer); ok {
			c.Close()
		}
	}
	store, err := ticket.Open(backend, ticket.WithLogger(logger))
	if err != nil {
		release()
		return nil, nil, err
	}
	return desk.New(desk.Config{Store: store, Logger: logger}), release, nil
}

func newDoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "do <command...>",
		Short: "Run one command against the local data file",
		Example: `  tktctl do create ticket for login bug, high priority
  tktctl do show open tickets`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, release, err := openDesk(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer release()

			ex, err := d.Process(ChannelCLI, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResponse(ex.Response))
			return nil
		},
	}
}

func newReplCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against the local data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, release, err := openDesk(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer release()
			return repl(d, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func repl(d *desk.Desk, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("tkt")+" type a command, 'help', 'stats' or 'quit'")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, renderResponse(reply.Help()))
			fmt.Fprintln(out, renderResponse(reply.Categories()))
			continue
		case "stats":
			fmt.Fprintln(out, renderStats(d.Stats()))
			continue
		}

		ex, err := d.Process(ChannelCLI, line)
		if err != nil {
			fmt.Fprintln(out, errStyle.Render("error: ")+err.Error())
			continue
		}
		fmt.Fprintln(out, renderResponse(ex.Response))
	}
}
