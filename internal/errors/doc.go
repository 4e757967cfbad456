// Package errors provides typed error values for Quill.
//
// Cryptographic failures that are expected during normal use (a wrong
// password, a locked session, an entry shared by a revoked key) are modeled
// as sentinel errors so callers can tell "try again" apart from "something is
// broken" with errors.Is() instead of string matching.
//
// # Error Categories
//
//   - Session errors: ErrNoSession, ErrSessionLocked, ErrIntegrityViolation
//   - Password errors: ErrWrongPassword, ErrInvalidPassword, ErrSamePassword
//   - Key material errors: ErrInvalidEncoding, ErrInvalidKeyLength, ErrDecryptFailed
//   - Storage errors: ErrKeyNotFound, ErrInvalidStoredKeys
//   - Biometric errors: ErrBiometricNotEnabled, ErrBiometricFailed
//   - Cloud errors: ErrNotAuthenticated, ErrCloudKeysNotFound
//
// # Usage
//
//	data, err := svc.EncryptEntry(entry)
//	if errors.Is(err, kerrors.ErrSessionLocked) {
//	    // Prompt for the password and unlock.
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("decoding public key for user %s: %w", userID, kerrors.ErrInvalidEncoding)
package errors
