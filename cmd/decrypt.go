package cmd

import (
	"fmt"
	"strings"

	"github.com/PolarWolf314/quill/internal/entries"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var (
	decryptInput  string
	decryptAuthor string
	decryptJSON   bool
)

func init() {
	decryptCmd.Flags().StringVarP(&decryptInput, "input", "i", "-", "encrypted entry file ('-' for stdin)")
	decryptCmd.Flags().StringVar(&decryptAuthor, "author", "", "public key of the user who wrapped the entry key (default: your own)")
	decryptCmd.Flags().BoolVar(&decryptJSON, "json", false, "output the entry as JSON")
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a journal entry",
	Long: `Decrypts an encrypted entry with your secret key. Entries shared with you
were wrapped by another user; pass their public key with --author.

Examples:
  quill decrypt -i monday.json
  quill decrypt -i shared.json --author <base64 public key> --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")

		var data entries.EncryptedData
		if err := readJSONFile(decryptInput, &data); err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		unlockErr := unlock(cmd.Context(), a)

		s, cleanup := startSpinner("Decrypting entry...", verbose)
		defer cleanup()
		if unlockErr != nil {
			return finish(s, unlockErr)
		}

		entry, err := a.svc.DecryptEntry(&data, decryptAuthor)
		if err != nil {
			return finish(s, err)
		}
		cleanup()

		if decryptJSON {
			return writeJSON("", entry)
		}
		printEntry(entry)
		return nil
	},
}

func printEntry(entry *entries.Entry) {
	fmt.Println(ui.Highlight.Sprint(entry.Title))
	var meta []string
	if entry.Mood != "" {
		meta = append(meta, "mood: "+entry.Mood)
	}
	if len(entry.Tags) > 0 {
		meta = append(meta, "tags: "+strings.Join(entry.Tags, ", "))
	}
	if len(meta) > 0 {
		fmt.Println(ui.Muted.Sprint(strings.Join(meta, " | ")))
	}
	fmt.Println()
	fmt.Println(entry.Content)
}
