package cmd

import (
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the password protecting your secret key",
	Long: `Re-encrypts the stored secret key under a new password. The key pair
itself does not change, so existing entries stay readable.

Biometric login is turned off because it stores the old password. Run
'quill biometric enable' again afterwards. A cloud backup keeps the old
password until you back up again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting passwd command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		current, err := readPassword("Current password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(current)

		next, err := readNewPassword("New password: ")
		if err != nil {
			s, cleanup := startSpinner("Changing password...", verbose)
			defer cleanup()
			return finish(s, err)
		}
		defer keys.Zero(next)

		s, cleanup := startSpinner("Changing password...", verbose)
		defer cleanup()

		hadBiometric := a.svc.IsBiometricEnabled()
		if err := a.svc.ChangePassword(cmd.Context(), current, next); err != nil {
			return finish(s, err)
		}

		s.FinalMSG = ui.Success.Sprint("✓") + " Password changed"
		if hadBiometric {
			s.FinalMSG += "\n" + ui.Warning.Sprint("⚠") + " Biometric login was disabled\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill biometric enable") + " to turn it back on"
		}
		return nil
	},
}
