package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	logger "github.com/PolarWolf314/quill/internal/logging"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:   "quill",
		Short: "Quill - an end-to-end encrypted journal.",
		Long: `Quill keeps journal entries encrypted on your device. Entries are sealed
with a per-entry key that only you, and the people you share with, can unwrap.

Usage:
  quill <command> [flags]

Run 'quill help <command>' for more details on a specific command.
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println()
			figure.NewColorFigure("Quill", "alligator2", "green", true).Print()
			fmt.Println()
			fmt.Println("Run 'quill --help' to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(signupCmd)
	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(passwdCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(shareCmd)
	RootCmd.AddCommand(hashCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(biometricCmd)
	RootCmd.AddCommand(cloudCmd)
}

// Execute runs the root command. An interrupt cancels any pending
// biometric confirmation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

// ResetGlobalState resets flags and package state between test runs.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetFlags(RootCmd)
}

// resetFlags restores every flag in the command tree to its default value.
func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if slice, ok := flag.Value.(pflag.SliceValue); ok {
			_ = slice.Replace(nil)
		} else {
			_ = flag.Value.Set(flag.DefValue)
		}
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
