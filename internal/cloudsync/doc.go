// Package cloudsync backs up the password-encrypted identity key to the
// user's remote profile and restores it on a new device.
//
// Only the public key and the password-encrypted secret key leave the device.
// Backups never overwrite existing cloud keys. Restores validate the remote
// record and the reconstructed key pair before persisting anything locally.
//
// RESTClient implements ProfileClient over HTTP with resty:
//
//	GET {base}/users/{id}/profile
//	PUT {base}/users/{id}/profile   {"public_key": "...", "encrypted_private_key": "..."}
package cloudsync
