package cmd

import (
	"github.com/PolarWolf314/quill/internal/entries"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var (
	shareInput        string
	shareEntryID      string
	shareRecipientID  string
	shareRecipientKey string
	shareOutput       string
)

func init() {
	shareCmd.Flags().StringVarP(&shareInput, "input", "i", "-", "encrypted entry file ('-' for stdin)")
	shareCmd.Flags().StringVar(&shareEntryID, "entry-id", "", "id of the entry being shared")
	shareCmd.Flags().StringVar(&shareRecipientID, "recipient-id", "", "user id of the recipient")
	shareCmd.Flags().StringVar(&shareRecipientKey, "recipient-key", "", "Base64 public key of the recipient")
	shareCmd.Flags().StringVarP(&shareOutput, "output", "o", "", "write the access key to this file instead of stdout")
	_ = shareCmd.MarkFlagRequired("entry-id")
	_ = shareCmd.MarkFlagRequired("recipient-id")
	_ = shareCmd.MarkFlagRequired("recipient-key")
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Grant another user access to one of your entries",
	Long: `Wraps the entry key of one of your entries for another user's public key
and prints the resulting access key as JSON. The entry content is not
re-encrypted. Store the access key where the recipient can fetch it; they
decrypt with 'quill decrypt --author <your public key>'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting share command")

		var data entries.EncryptedData
		if err := readJSONFile(shareInput, &data); err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		unlockErr := unlock(cmd.Context(), a)

		s, cleanup := startSpinner("Sharing entry...", verbose)
		defer cleanup()
		if unlockErr != nil {
			return finish(s, unlockErr)
		}

		accessKey, err := a.svc.ShareEntry(shareEntryID, &data, shareRecipientID, shareRecipientKey)
		if err != nil {
			return finish(s, err)
		}

		if shareOutput == "" {
			cleanup()
			return writeJSON("", accessKey)
		}
		if err := writeJSON(shareOutput, accessKey); err != nil {
			return Logger.ErrorfAndReturn("failed to write access key: %v", err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Shared with " + ui.Highlight.Sprint(shareRecipientID) +
			"; access key written to " + ui.Path.Sprint(shareOutput)
		return nil
	},
}
