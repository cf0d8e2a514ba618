package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/rKV/cmd/kv"
	"github.com/ValentinKolb/rKV/cmd/lock"
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/lib/logger"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rkv",
		Short: "coordination primitives on Redis",
		Long: fmt.Sprintf(`rKV (v%s)

A coordination store on top of Redis, providing atomic key creation,
existence-gated updates, optimistic compare-and-set, prefix enumeration
and cross-process invalidation messages.`, Version),
		PersistentPreRunE: setupLogging,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rKV v%s\n", Version)
		},
	}
)

func init() {
	// Run parent PersistentPreRunE hooks before the subcommand's own
	cobra.EnableTraverseRunHooks = true

	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, raw)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warning", util.WrapString("log level (debug, info, warning, error)"))
}

// setupLogging applies the log-level flag to all package loggers
func setupLogging(cmd *cobra.Command, _ []string) error {
	value, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(value)
	if err != nil {
		return err
	}
	logger.SetLevelAll(level)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
