// Command tktctl drives the ticket assistant from a terminal, either
// directly against a data file or through a running tktd.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	dataPath string
	backend  string
	addr     string
	key      string
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "tktctl",
		Short:         "Natural-language ticket assistant",
		Long:          "tktctl creates, updates, lists and closes tickets from plain-English commands.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dataPath, "data", envOr("TKT_DATA", "data/tickets.json"), "ticket data file (local commands)")
	pf.StringVar(&opts.backend, "backend", envOr("TKT_BACKEND", "json"), "storage backend: json or sqlite (local commands)")
	pf.StringVar(&opts.addr, "addr", envOr("TKT_API_URL", "http://127.0.0.1:5000"), "tktd base URL (remote commands)")
	pf.StringVar(&opts.key, "key", os.Getenv("TKT_API_KEY"), "API key for tktd (remote commands)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newReplCmd(opts),
		newDoCmd(opts),
		newSendCmd(opts),
		newTicketsCmd(opts),
		newStatsCmd(opts),
		newHealthCmd(opts),
		newConfigCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
