package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/PolarWolf314/quill/internal/audit"
	"github.com/PolarWolf314/quill/internal/auth"
	"github.com/PolarWolf314/quill/internal/biometric"
	"github.com/PolarWolf314/quill/internal/cloudsync"
	"github.com/PolarWolf314/quill/internal/configs"
	"github.com/PolarWolf314/quill/internal/encryption"
	"github.com/PolarWolf314/quill/internal/entries"
	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	"github.com/PolarWolf314/quill/internal/session"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines. The cleanup function
// runs ui.EnsureNewline() on the final message before printing it. Only the
// first call to cleanup has any effect, so it can be called early and deferred.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	done := false
	cleanup := func() {
		if done {
			return
		}
		done = true

		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Cleared so s.Stop() does not print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// app holds the services a single command invocation works with.
type app struct {
	settings *configs.Settings
	config   *configs.Config
	audit    *audit.Log
	svc      *encryption.Service
}

// loadApp resolves paths and configuration and wires the encryption service.
// The session starts empty; commands restore or unlock it as they need.
func loadApp() (*app, error) {
	settings, err := configs.NewSettings()
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Config dir: %s, data dir: %s", settings.ConfigDir, settings.DataDir)

	config, err := configs.LoadConfig(settings.ConfigPath())
	if err != nil {
		return nil, err
	}

	km := keys.NewManager(keys.WithParams(config.Params()))
	store := keystore.NewFileStore(settings.KeysPath())
	auditLog := audit.NewLog(settings.AuditPath())

	sessions := session.NewManager(session.Options{
		Store:       store,
		Keys:        km,
		Logger:      Logger,
		PurgeOnLock: config.Session.PurgeOnLock,
	})
	sessions.Subscribe(auditLog.SessionObserver())

	authSvc := auth.NewService(auth.Options{
		Keys:    km,
		Store:   store,
		Session: sessions,
		Logger:  Logger,
	})

	bio := biometric.NewService(biometric.Options{
		Platform: biometric.NewDevicePlatform(settings.BiometricDir(), confirmBiometric),
		Store:    store,
		Auth:     authSvc,
		Logger:   Logger,
	})

	var cloud *cloudsync.Service
	if config.Backend.URL != "" {
		client, err := cloudsync.NewRESTClient(cloudsync.RESTConfig{
			BaseURL: config.Backend.URL,
			Token:   config.Token(),
		})
		if err != nil {
			return nil, err
		}
		cloud = cloudsync.NewService(cloudsync.Options{
			Client:  client,
			Keys:    km,
			Store:   store,
			Session: sessions,
			Logger:  Logger,
		})
	} else {
		Logger.Debugf("No backend configured; cloud sync disabled")
	}

	svc := encryption.New(encryption.Options{
		Session:   sessions,
		Auth:      authSvc,
		Biometric: bio,
		Cloud:     cloud,
		Cryptor:   entries.NewCryptor(),
		Audit:     auditLog,
		Logger:    Logger,
	})

	return &app{settings: settings, config: config, audit: auditLog, svc: svc}, nil
}

// unlock restores the stored session and unlocks it, trying biometrics first
// when enabled and falling back to the password prompt.
func unlock(ctx context.Context, a *app) error {
	if err := a.svc.RestoreSession(); err != nil {
		return err
	}
	if a.svc.IsUnlocked() {
		return nil
	}

	if a.svc.IsBiometricEnabled() {
		err := a.svc.LoginWithBiometric(ctx)
		if err == nil {
			return nil
		}
		Logger.Warnf("Biometric login failed, falling back to password: %v", err)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	defer keys.Zero(password)

	return a.svc.UnlockSession(password)
}

// readNewPassword prompts for a new password twice.
func readNewPassword(prompt string) ([]byte, error) {
	password, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		keys.Zero(password)
		return nil, err
	}
	defer keys.Zero(confirm)

	if string(password) != string(confirm) {
		keys.Zero(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}

var errPasswordMismatch = errors.New("passwords do not match")

// formatError renders an expected error with a hint on how to recover.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrKeyNotFound):
		return ui.Error.Sprint("✗") + " No keys found on this device\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill signup") + " or " +
			ui.Code.Sprint("quill cloud restore") + " first"
	case errors.Is(err, kerrors.ErrWrongPassword):
		return ui.Error.Sprint("✗") + " Wrong password"
	case errors.Is(err, kerrors.ErrInvalidPassword):
		return ui.Error.Sprint("✗") + fmt.Sprintf(" Password must be at least %d characters", auth.MinPasswordLength)
	case errors.Is(err, kerrors.ErrSamePassword):
		return ui.Error.Sprint("✗") + " New password must differ from the current password"
	case errors.Is(err, errPasswordMismatch):
		return ui.Error.Sprint("✗") + " Passwords do not match"
	case errors.Is(err, kerrors.ErrNoSession), errors.Is(err, kerrors.ErrSessionLocked):
		return ui.Error.Sprint("✗") + " Session is not unlocked\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill login") + " first"
	case errors.Is(err, kerrors.ErrIntegrityViolation):
		return ui.Error.Sprint("✗") + " Stored keys failed validation and the session was closed"
	case errors.Is(err, kerrors.ErrDecryptFailed):
		return ui.Error.Sprint("✗") + " Could not decrypt the entry\n" +
			ui.Info.Sprint("→") + " Check that " + ui.Flag.Sprint("--author") + " is the key that encrypted it"
	case errors.Is(err, kerrors.ErrInvalidEncoding), errors.Is(err, kerrors.ErrInvalidKeyLength),
		errors.Is(err, kerrors.ErrInvalidKeyPair):
		return ui.Error.Sprint("✗") + " Invalid key: " + err.Error()
	case errors.Is(err, kerrors.ErrInvalidEntryData):
		return ui.Error.Sprint("✗") + " Invalid entry data: " + err.Error()
	case errors.Is(err, kerrors.ErrBiometricUnavailable):
		return ui.Error.Sprint("✗") + " Biometric authentication is not available on this device"
	case errors.Is(err, kerrors.ErrBiometricNotEnabled):
		return ui.Error.Sprint("✗") + " Biometric login is not enabled\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("quill biometric enable") + " first"
	case errors.Is(err, kerrors.ErrBiometricCancelled):
		return ui.Warning.Sprint("⚠") + " Biometric authentication was cancelled"
	case errors.Is(err, kerrors.ErrBiometricFailed):
		return ui.Error.Sprint("✗") + " Biometric authentication failed"
	case errors.Is(err, kerrors.ErrBackendNotConfigured):
		return ui.Error.Sprint("✗") + " No backend is configured\n" +
			ui.Info.Sprint("→") + " Set " + ui.Code.Sprint("backend.url") + " in " + ui.Path.Sprint("config.toml")
	case errors.Is(err, kerrors.ErrNotAuthenticated):
		return ui.Error.Sprint("✗") + " Not authenticated to the backend\n" +
			ui.Info.Sprint("→") + " Export your token in " + ui.Code.Sprint(configs.DefaultTokenEnv)
	case errors.Is(err, kerrors.ErrCloudKeysNotFound):
		return ui.Error.Sprint("✗") + " No key backup found in the cloud"
	case errors.Is(err, kerrors.ErrNothingToSync):
		return ui.Warning.Sprint("⚠") + " No keys found locally or in the cloud"
	case errors.Is(err, kerrors.ErrLocalKeysExist):
		return ui.Error.Sprint("✗") + " Keys for a different identity are stored on this device\n" +
			ui.Info.Sprint("→") + " Back them up with " + ui.Code.Sprint("quill cloud backup") + " or remove them with " +
			ui.Code.Sprint("quill logout --clear --force") + " first"
	case errors.Is(err, kerrors.ErrInvalidStoredKeys):
		return ui.Error.Sprint("✗") + " Key record is malformed: " + err.Error()
	case errors.Is(err, kerrors.ErrInvalidUserID):
		return ui.Error.Sprint("✗") + " A user id is required"
	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// isUnexpectedError reports errors that should abort the command rather than
// be shown as a formatted message.
func isUnexpectedError(err error) bool {
	expected := []error{
		kerrors.ErrKeyNotFound,
		kerrors.ErrWrongPassword,
		kerrors.ErrInvalidPassword,
		kerrors.ErrSamePassword,
		errPasswordMismatch,
		kerrors.ErrNoSession,
		kerrors.ErrSessionLocked,
		kerrors.ErrIntegrityViolation,
		kerrors.ErrDecryptFailed,
		kerrors.ErrInvalidEncoding,
		kerrors.ErrInvalidKeyLength,
		kerrors.ErrInvalidKeyPair,
		kerrors.ErrInvalidEntryData,
		kerrors.ErrBiometricUnavailable,
		kerrors.ErrBiometricNotEnabled,
		kerrors.ErrBiometricFailed,
		kerrors.ErrBackendNotConfigured,
		kerrors.ErrNotAuthenticated,
		kerrors.ErrCloudKeysNotFound,
		kerrors.ErrNothingToSync,
		kerrors.ErrLocalKeysExist,
		kerrors.ErrInvalidStoredKeys,
		kerrors.ErrInvalidUserID,
	}
	for _, target := range expected {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}

// finish reports err on the spinner. Expected errors become the final
// message; anything else is returned.
func finish(s *spinner.Spinner, err error) error {
	if err == nil {
		return nil
	}
	if isUnexpectedError(err) {
		Logger.Errorf("%v", err)
		return err
	}
	Logger.Debugf("Expected error: %v", err)
	s.FinalMSG = formatError(err)
	return nil
}
