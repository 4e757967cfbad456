package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

// StatusResult holds the result of the status command. It never carries
// secret key material.
type StatusResult struct {
	UserID           string `json:"user_id,omitempty"`
	PublicKey        string `json:"public_key,omitempty"`
	HasKeys          bool   `json:"has_keys"`
	BiometricEnabled bool   `json:"biometric_enabled"`
	Backend          string `json:"backend,omitempty"`
	KeysPath         string `json:"keys_path"`
	AuditPath        string `json:"audit_path"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the identity stored on this device",
	Long: `Shows the user id and public key stored on this device, whether
biometric login is enabled and which backend is configured. No password is
needed; only public metadata is read.

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		result := StatusResult{
			Backend:   a.config.Backend.URL,
			KeysPath:  a.settings.KeysPath(),
			AuditPath: a.settings.AuditPath(),
		}

		err = a.svc.RestoreSession()
		switch {
		case err == nil:
			result.HasKeys = true
			result.UserID = a.svc.CurrentUserID()
			result.PublicKey = a.svc.CurrentPublicKey()
			result.BiometricEnabled = a.svc.IsBiometricEnabled()
		case errors.Is(err, kerrors.ErrKeyNotFound):
			Logger.Debugf("No stored keys at %s", result.KeysPath)
		default:
			if statusJSONOutput {
				return Logger.ErrorfAndReturn("failed to read stored keys: %v", err)
			}
			fmt.Println(formatError(err))
			return nil
		}

		if statusJSONOutput {
			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to marshal status: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		printStatus(result)
		return nil
	},
}

func printStatus(result StatusResult) {
	if !result.HasKeys {
		fmt.Println(formatError(kerrors.ErrKeyNotFound))
		return
	}

	backend := ui.Muted.Sprint("not configured")
	if result.Backend != "" {
		backend = ui.Path.Sprint(result.Backend)
	}
	biometric := ui.Muted.Sprint("disabled")
	if result.BiometricEnabled {
		biometric = ui.Success.Sprint("enabled")
	}

	fmt.Println(ui.Success.Sprint("✓") + " Keys stored on this device")
	fmt.Print(ui.Fields(
		[2]string{"User", ui.Highlight.Sprint(result.UserID)},
		[2]string{"Public key", ui.Key.Sprint(ui.ShortKey(result.PublicKey))},
		[2]string{"Biometric", biometric},
		[2]string{"Backend", backend},
		[2]string{"Keys file", ui.Path.Sprint(result.KeysPath)},
	))
}
