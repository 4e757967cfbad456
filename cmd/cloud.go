package cmd

import (
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var cloudUser string

func init() {
	cloudCmd.PersistentFlags().StringVar(&cloudUser, "user", "", "user id of the cloud profile (default: the configured user id)")

	cloudCmd.AddCommand(cloudBackupCmd)
	cloudCmd.AddCommand(cloudRestoreCmd)
	cloudCmd.AddCommand(cloudSyncCmd)
	cloudCmd.AddCommand(cloudDeleteCmd)
}

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Back up and restore your keys through the backend",
	Long: `Stores your password-encrypted secret key on your backend profile so it
can be restored on another device. The backend never sees the password or
the plaintext secret key.

Requires backend.url in the config file and a token in the environment
variable named by backend.token_env (QUILL_TOKEN by default).`,
}

// cloudUserID resolves the profile to act on.
func cloudUserID(a *app) string {
	if cloudUser != "" {
		return cloudUser
	}
	if a.config.User.UserID != "" {
		return a.config.User.UserID
	}
	if err := a.svc.RestoreSession(); err == nil {
		return a.svc.CurrentUserID()
	}
	return ""
}

var cloudBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload your encrypted keys; existing cloud keys are kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting cloud backup command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Backing up keys...", verbose)
		defer cleanup()

		if err := a.svc.Login(password); err != nil {
			return finish(s, err)
		}
		if err := a.svc.BackupKeysToCloud(cmd.Context(), password); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Keys backed up for " + ui.Highlight.Sprint(a.svc.CurrentUserID())
		return nil
	},
}

var cloudRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Download your keys from the backend onto this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting cloud restore command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		userID := cloudUserID(a)

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Restoring keys...", verbose)
		defer cleanup()

		if err := a.svc.RestoreKeysFromCloud(cmd.Context(), userID, password); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Keys restored for " + ui.Highlight.Sprint(userID)
		return nil
	},
}

var cloudSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Back up or restore, whichever side is missing keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting cloud sync command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		userID := cloudUserID(a)

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Synchronizing keys...", verbose)
		defer cleanup()

		status, err := a.svc.SyncKeys(cmd.Context(), userID, password)
		if err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Keys " + status.String()
		return nil
	},
}

var cloudDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove your key backup from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting cloud delete command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		userID := cloudUserID(a)

		s, cleanup := startSpinner("Deleting cloud keys...", verbose)
		defer cleanup()

		if err := a.svc.DeleteCloudKeys(cmd.Context(), userID); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Cloud keys deleted for " + ui.Highlight.Sprint(userID)
		return nil
	},
}
