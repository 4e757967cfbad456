package cmd

import (
	"fmt"

	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

func init() {
	biometricCmd.AddCommand(biometricEnableCmd)
	biometricCmd.AddCommand(biometricDisableCmd)
	biometricCmd.AddCommand(biometricStatusCmd)
}

var biometricCmd = &cobra.Command{
	Use:   "biometric",
	Short: "Manage biometric login on this device",
	Long: `Biometric login stores your password encrypted under a device credential,
so unlocking needs a confirmation on this device instead of typing the
password. The password itself still protects your secret key.`,
}

var biometricEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable biometric login",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting biometric enable command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}
		defer keys.Zero(password)

		s, cleanup := startSpinner("Enabling biometric login...", verbose)
		defer cleanup()

		if err := a.svc.EnableBiometric(cmd.Context(), password); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Biometric login enabled\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill login --biometric") + " to use it"
		return nil
	},
}

var biometricDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable biometric login and remove the device credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting biometric disable command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		s, cleanup := startSpinner("Disabling biometric login...", verbose)
		defer cleanup()

		if err := a.svc.DisableBiometric(cmd.Context()); err != nil {
			return finish(s, err)
		}
		s.FinalMSG = ui.Success.Sprint("✓") + " Biometric login disabled"
		return nil
	},
}

var biometricStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether biometric login is available and enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		available := ui.Muted.Sprint("no")
		if a.svc.IsBiometricAvailable(cmd.Context()) {
			available = ui.Success.Sprint("yes")
		}
		enabled := ui.Muted.Sprint("no")
		if a.svc.IsBiometricEnabled() {
			enabled = ui.Success.Sprint("yes")
		}
		fmt.Print(ui.Fields(
			[2]string{"Available", available},
			[2]string{"Enabled", enabled},
		))
		return nil
	},
}
