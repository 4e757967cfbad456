package errors

import "errors"

// Session errors indicate the E2E session cannot serve a cryptographic operation.
var (
	// ErrNoSession indicates no session exists in this process.
	ErrNoSession = errors.New("no active session")

	// ErrSessionLocked indicates a session exists but its secret key is not available.
	ErrSessionLocked = errors.New("session is locked")

	// ErrIntegrityViolation indicates reconstructed key material failed validation.
	// The session is logged out whenever this error is produced.
	ErrIntegrityViolation = errors.New("key pair failed integrity validation")
)

// Password errors indicate a password was wrong or violates the password policy.
var (
	// ErrWrongPassword indicates the password did not decrypt the stored secret key.
	// Corrupted ciphertext produces the same error.
	ErrWrongPassword = errors.New("wrong password or corrupted key data")

	// ErrInvalidPassword indicates the password is shorter than the minimum length.
	ErrInvalidPassword = errors.New("password does not meet the minimum length")

	// ErrSamePassword indicates the new password is identical to the old one.
	ErrSamePassword = errors.New("new password must differ from the current password")
)

// Key material errors indicate malformed keys or encoded data.
var (
	// ErrInvalidEncoding indicates a value is not valid standard Base64.
	ErrInvalidEncoding = errors.New("invalid base64 encoding")

	// ErrInvalidKeyLength indicates a decoded key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrCiphertextTooShort indicates a ciphertext is below the minimum plausible length.
	ErrCiphertextTooShort = errors.New("ciphertext is too short")

	// ErrInvalidKDFParams indicates key derivation parameters are out of bounds.
	ErrInvalidKDFParams = errors.New("invalid key derivation parameters")

	// ErrInvalidKeyPair indicates a key pair is missing a component.
	ErrInvalidKeyPair = errors.New("invalid key pair")

	// ErrInvalidUserID indicates an empty or missing user identifier.
	ErrInvalidUserID = errors.New("user id must not be empty")

	// ErrInvalidEntryData indicates encrypted entry data is structurally invalid.
	ErrInvalidEntryData = errors.New("invalid encrypted entry data")

	// ErrDecryptFailed indicates authenticated decryption failed.
	ErrDecryptFailed = errors.New("failed to decrypt data")
)

// Storage errors indicate issues with persisted key records.
var (
	// ErrKeyNotFound indicates no stored keys record exists.
	ErrKeyNotFound = errors.New("stored keys not found")

	// ErrInvalidStoredKeys indicates the stored keys record is malformed.
	ErrInvalidStoredKeys = errors.New("stored keys record is invalid")
)

// Biometric errors indicate the biometric convenience path is unavailable.
var (
	// ErrBiometricUnavailable indicates the platform has no biometric support.
	ErrBiometricUnavailable = errors.New("biometric authentication is not available")

	// ErrBiometricNotEnabled indicates biometric login has not been enabled.
	ErrBiometricNotEnabled = errors.New("biometric login is not enabled")

	// ErrBiometricFailed indicates the platform challenge failed or was declined.
	ErrBiometricFailed = errors.New("biometric authentication failed")

	// ErrBiometricCancelled indicates the user or platform cancelled the challenge.
	ErrBiometricCancelled = errors.New("biometric authentication was cancelled")
)

// Cloud errors indicate issues with the remote key backup.
var (
	// ErrNotAuthenticated indicates there is no backend identity to sync with.
	ErrNotAuthenticated = errors.New("not authenticated to the backend")

	// ErrBackendNotConfigured indicates the backend URL is missing.
	ErrBackendNotConfigured = errors.New("backend url is not configured")

	// ErrCloudKeysNotFound indicates the remote profile has no key backup.
	ErrCloudKeysNotFound = errors.New("no key backup found in the cloud")

	// ErrNothingToSync indicates neither local nor cloud keys exist.
	ErrNothingToSync = errors.New("no local or cloud keys to synchronize")

	// ErrLocalKeysExist indicates a different identity is already stored on this device.
	ErrLocalKeysExist = errors.New("keys for a different identity are stored on this device")

	// ErrCloudRequestFailed indicates the backend returned an error response.
	ErrCloudRequestFailed = errors.New("cloud request failed")
)

// Audit errors indicate issues reading the audit log.
var (
	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD format.
	ErrInvalidDateFormat = errors.New("invalid date format")
)
