package cmd

import (
	"github.com/spf13/cobra"
)

var hashEntry entryFlags

func init() {
	addEntryFlags(hashCmd, &hashEntry)
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the index hashes of a journal entry",
	Long: `Prints the BLAKE2b digests of an entry's title, content and preview.
A server can store and compare these to detect changes without seeing the
plaintext. No password is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting hash command")

		entry, err := hashEntry.entry()
		if err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		return writeJSON("", a.svc.GenerateHashes(entry))
	},
}
