package cmd

import (
	"fmt"

	"github.com/PolarWolf314/quill/internal/configs"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new identity key pair on this device",
	Long: `Generates a new identity key pair, encrypts the secret key with your
password and stores it on this device. A user id is generated and saved to
the config file if one is not set.

Passwords must be at least 8 characters. There is no way to recover a
forgotten password without a cloud backup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting signup command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		if a.svc.HasStoredKeys() {
			fmt.Println(ui.Warning.Sprint("⚠") + " Keys already exist on this device")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill logout --clear") + " to remove them first")
			return nil
		}

		config, err := configs.EnsureUserID(a.settings.ConfigPath())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to set up user id: %v", err)
		}
		userID := config.User.UserID
		Logger.Debugf("User id: %s", userID)

		password, err := readNewPassword("Choose a password: ")
		if err != nil {
			s, cleanup := startSpinner("Creating keys...", verbose)
			defer cleanup()
			return finish(s, err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Creating keys...", verbose)
		defer cleanup()

		if err := a.svc.Signup(userID, password); err != nil {
			return finish(s, err)
		}

		s.FinalMSG = ui.Success.Sprint("✓") + " Created keys for " + ui.Highlight.Sprint(userID) + "\n" +
			ui.Fields([2]string{"Public key", ui.Key.Sprint(a.svc.CurrentPublicKey())})
		return nil
	},
}
