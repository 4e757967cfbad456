// Package auth implements the password paths of the E2E identity.
//
// Signup generates a key pair, protects the secret key with the user's
// password and opens an unlocked session. Login reverses that with the
// persisted record. ChangePassword re-encrypts the secret key in place; the
// key pair itself never changes, so entries and shares stay readable.
//
// All paths share one password policy, see ValidatePassword.
package auth
