package cmd

import (
	"github.com/PolarWolf314/quill/internal/entries"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var (
	encryptEntry    entryFlags
	encryptExisting string
	encryptAuthor   string
	encryptOutput   string
)

func init() {
	addEntryFlags(encryptCmd, &encryptEntry)
	encryptCmd.Flags().StringVar(&encryptExisting, "existing", "", "re-encrypt under the entry key of this encrypted entry file")
	encryptCmd.Flags().StringVar(&encryptAuthor, "author", "", "public key that wrapped the --existing entry key (default: your own)")
	encryptCmd.Flags().StringVarP(&encryptOutput, "output", "o", "", "write the encrypted entry to this file instead of stdout")
}

func addEntryFlags(cmd *cobra.Command, f *entryFlags) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "read the entry as JSON from this file ('-' for stdin)")
	cmd.Flags().StringVar(&f.title, "title", "", "entry title")
	cmd.Flags().StringVar(&f.content, "content", "", "entry content")
	cmd.Flags().StringVar(&f.preview, "preview", "", "entry preview (default: the start of the content)")
	cmd.Flags().StringVar(&f.mood, "mood", "", "entry mood")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "comma-separated entry tags")
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a journal entry for yourself",
	Long: `Encrypts an entry under a fresh entry key and wraps that key for your own
public key. The result is printed as JSON.

With --existing the entry is encrypted under the entry key of an entry you
already have, so access keys shared for that entry keep working after an edit.

Examples:
  quill encrypt --title "Monday" --content "..." -o monday.json
  cat entry.json | quill encrypt --input -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")

		entry, err := encryptEntry.entry()
		if err != nil {
			return err
		}

		var existing *entries.EncryptedData
		if encryptExisting != "" {
			existing = &entries.EncryptedData{}
			if err := readJSONFile(encryptExisting, existing); err != nil {
				return err
			}
		}

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		unlockErr := unlock(cmd.Context(), a)

		s, cleanup := startSpinner("Encrypting entry...", verbose)
		defer cleanup()
		if unlockErr != nil {
			return finish(s, unlockErr)
		}

		var data *entries.EncryptedData
		if existing != nil {
			data, err = a.svc.EncryptEntryWithExistingKey(entry, existing, encryptAuthor)
		} else {
			data, err = a.svc.EncryptEntry(entry)
		}
		if err != nil {
			return finish(s, err)
		}

		if encryptOutput == "" {
			cleanup()
			return writeJSON("", data)
		}
		if err := writeJSON(encryptOutput, data); err != nil {
			return Logger.ErrorfAndReturn("failed to write encrypted entry: %v", err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Encrypted entry written to " + ui.Path.Sprint(encryptOutput)
		return nil
	},
}
