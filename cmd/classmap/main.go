// Command classmap reduces PHP source files to compact class-structure
// summaries for low-token machine consumption.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "0.2.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "classmap",
		Short: "Compact PHP class summaries for machine consumption",
		Long: "classmap parses PHP files, finds the first class-like declaration in each,\n" +
			"and emits a filtered structural summary: class name, interfaces, properties,\n" +
			"methods, parameter counts and canonical return types.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().String("filter", "", "Member filter: all or public")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(newFileCmd())
	rootCmd.AddCommand(newDirCmd())
	rootCmd.AddCommand(newOutlineCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogging points the global zerolog logger at stderr so stdout stays
// clean for JSON and outline output.
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the classmap version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("classmap %s\n", version)
		},
	}
}
