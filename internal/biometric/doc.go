// Package biometric implements biometric login as a convenience over the
// password path.
//
// Enabling stores the user's password encrypted under a key derived from the
// platform's authenticator data (HKDF-SHA256 into secretbox). Logging in runs
// a platform challenge, decrypts the password and hands it to the password
// login path, so the security boundary stays the password.
//
// Platform abstracts the device. DevicePlatform is a software implementation
// for terminals: a random per-user secret kept in a 0600 file and released
// only after a confirmation callback succeeds.
package biometric
