// Package keys manages identity key pairs for Quill.
//
// Each user has one NaCl box key pair (X25519). The public key is shared
// freely; the secret key never leaves the device unencrypted.
//
// # Secret Key Protection
//
// Before the secret key is persisted it is sealed with NaCl secretbox under a
// key derived from the user's password with argon2id. The ciphertext carries
// everything needed to open it again except the password:
//
//	version(1) | time(4) | memory KiB(4) | threads(1) | salt(16) | nonce(24) | secretbox
//
// DecryptSecretKey reports false, not an error, for a wrong password. Corrupt
// data yields the same result, so callers can simply ask for the password again.
//
// # Encoding
//
// Keys are raw byte arrays in memory. Base64 (standard, padded) is only used
// at storage and transport boundaries through EncodeKey and DecodeKey.
package keys
