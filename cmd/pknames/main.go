// Command pknames is the CLI front-end to the web-of-trust DNS resolver.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// directoryFlag is the "~/.pknames"-style config directory path, shared
// by every subcommand except version.
var directoryFlag string
var verboseFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "pknames",
		Short: "Resolve human-readable names to self-certifying keys via a web of trust",
		Long: `pknames resolves human-readable domain names to self-certifying public
keys and their DNS records using a web-of-trust graph built from signed
follow lists. It predicts a public key for a queried name with a small
layered neural-network-shaped pass over the trust graph, then fetches
that key's signed DNS records from a distributed hash table.`,
	}

	rootCmd.PersistentFlags().StringVar(&directoryFlag, "directory", "~/.pknames", "config directory")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("pknames v%s (%s)\n", version, commit)
			},
		},
		newInitCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newLsCmd(),
		newLookupCmd(),
		newPublishCmd(),
		newServeCmd(),
		newGetinfoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// logger builds the process-wide structured logger.
func logger() *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openDirectory resolves and creates-if-absent the config directory every
// subcommand but version operates against.
func openDirectory() (config.Directory, error) {
	dir, err := config.New(directoryFlag)
	if err != nil {
		return config.Directory{}, err
	}
	if _, err := dir.CreateIfNotExist(); err != nil {
		return config.Directory{}, err
	}
	return dir, nil
}
