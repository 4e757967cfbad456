// Package entries encrypts journal entries with envelope encryption.
//
// # Encryption Architecture
//
//  1. A random 256-bit entry key seals the serialized entry with NaCl secretbox
//  2. The entry key is wrapped with NaCl box, once per recipient
//  3. Recipients unwrap the entry key with their secret key and the author's
//     public key, then open the content
//
// An entry shared with N users therefore has one content blob and N wrapped
// keys. Sharing (RewrapEntryKey) never touches the content ciphertext, and
// editing (EncryptWithExistingKey) keeps every wrapped key valid by reusing
// the entry key under a fresh content nonce.
//
// # Hashes
//
// GenerateHashes produces BLAKE2b-256 digests of the title, content and
// preview so the server can index and deduplicate entries without plaintext.
package entries
