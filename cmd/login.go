package cmd

import (
	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var loginBiometric bool

func init() {
	loginCmd.Flags().BoolVar(&loginBiometric, "biometric", false, "unlock with the device credential instead of a password")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify your password against the stored keys",
	Long: `Decrypts the stored secret key and checks that it still matches the
stored public key. Use --biometric to unlock with the device credential
enabled by 'quill biometric enable'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting login command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		if loginBiometric {
			s, cleanup := startSpinner("Waiting for biometric confirmation...", verbose)
			defer cleanup()
			if err := a.svc.LoginWithBiometric(cmd.Context()); err != nil {
				return finish(s, err)
			}
			s.FinalMSG = ui.Success.Sprint("✓") + " Logged in as " + ui.Highlight.Sprint(a.svc.CurrentUserID())
			return nil
		}

		if !a.svc.HasStoredKeys() {
			s, cleanup := startSpinner("Logging in...", verbose)
			defer cleanup()
			return finish(s, kerrors.ErrKeyNotFound)
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Logging in...", verbose)
		defer cleanup()

		if err := a.svc.Login(password); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Logged in as " + ui.Highlight.Sprint(a.svc.CurrentUserID())
		return nil
	},
}
