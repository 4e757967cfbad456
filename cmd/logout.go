package cmd

import (
	"fmt"

	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var (
	logoutClear bool
	logoutForce bool
)

func init() {
	logoutCmd.Flags().BoolVar(&logoutClear, "clear", false, "delete the stored keys from this device")
	logoutCmd.Flags().BoolVarP(&logoutForce, "force", "f", false, "skip the confirmation for --clear")
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session, optionally deleting the stored keys",
	Long: `Ends the session. With --clear the stored keys and any biometric
credential are removed from this device. Without a cloud backup this makes
every entry encrypted for you unreadable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting logout command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		if err := a.svc.RestoreSession(); err != nil && !logoutClear {
			s, cleanup := startSpinner("Logging out...", verbose)
			defer cleanup()
			return finish(s, err)
		}

		if !logoutClear {
			a.svc.Logout()
			fmt.Println(ui.Success.Sprint("✓") + " Logged out")
			return nil
		}

		if !logoutForce {
			fmt.Println(ui.Warning.Sprint("⚠") + " This deletes the keys stored in " + ui.Path.Sprint(a.settings.KeysPath()))
			fmt.Println(ui.Info.Sprint("→") + " Re-run with " + ui.Flag.Sprint("--force") + " to confirm")
			return nil
		}

		s, cleanup := startSpinner("Clearing stored keys...", verbose)
		defer cleanup()

		if err := a.svc.ClearStoredKeys(cmd.Context()); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Stored keys removed from this device"
		return nil
	},
}
