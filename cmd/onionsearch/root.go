package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for onionsearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onionsearch",
		Short: "Crawl Tor hidden services and search the collected pages",
		Long: `onionsearch crawls Tor hidden services (.onion addresses), stores the
visited pages in a local SQLite database and builds boolean, TF-IDF and
BM25 indices over them.

By default, the crawl command starts an embedded Tor daemon automatically.
Use --external-tor to use an existing Tor proxy instead.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "",
		"Configuration file path (default: .onionsearch in current or home directory)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory holding the database and indices (default: XDG data directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewAssessCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
