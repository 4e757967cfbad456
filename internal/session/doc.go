// Package session holds the one E2E session of a Quill process.
//
// # States
//
//	NoSession --Restore--> Locked --Unlock(password)--> Unlocked
//	NoSession|Locked --Create--> Unlocked
//	Unlocked --Lock--> Locked
//	Locked|Unlocked --Logout--> NoSession
//
// Restore only reads key metadata, so a restarted process knows who the user
// is without a password. Unlock re-derives the secret key from the persisted
// ciphertext every time, even when the key is still resident.
//
// # Gating
//
// The key pair is only reachable through WithKeyPair, which returns
// ErrNoSession or ErrSessionLocked unless the session is unlocked. This is
// the single choke point that keeps cryptographic operations from running on
// a locked session.
//
// # Locking
//
// By default Lock only gates the key pair. With Options.PurgeOnLock the
// secret key is zeroed as well. Logout always zeroes key material.
//
// # Observers
//
// Subscribe registers a callback for every state transition. The audit
// recorder and the CLI use it; nothing in the session depends on them.
package session
