// Package encryption is the composition root of the E2E core.
//
// Service exposes the operations the application needs: entry encryption,
// decryption, content updates, sharing and hashing, plus delegations to the
// session, auth, biometric and cloud sync services. Every encrypt and
// decrypt path runs through session.Manager.WithKeyPair, so no cryptographic
// operation can happen without an unlocked session.
//
// Sharing produces an AccessKey record per recipient; the content
// ciphertext is never re-encrypted to share an entry.
package encryption
