// Package keystore persists the user's key record on this device.
//
// The record holds the user id, the Base64 public key and the
// password-encrypted secret key, plus the optional biometric fields. Its JSON
// field names match what the storage API expects:
//
//	{
//	  "userId": "...",
//	  "publicKeyB64": "...",
//	  "encryptedSecretKeyB64": "...",
//	  "biometricEnabled": true,
//	  "encryptedPasswordB64": "..."
//	}
//
// FileStore writes the record atomically with 0600 permissions. MemoryStore
// is used in tests and for throwaway sessions.
package keystore
