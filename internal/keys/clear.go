package keys

// Zero overwrites b with zeros.
//
// The Go runtime may have copied the bytes elsewhere, so this is best effort.
// Call it on every path that drops key or password material.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ClearKey zeros a fixed-size key in place.
func ClearKey(key *[KeySize]byte) {
	if key == nil {
		return
	}
	Zero(key[:])
}

// ClearKeyPair zeros the secret key and drops both references.
func ClearKeyPair(pair *KeyPair) {
	if pair == nil {
		return
	}
	ClearKey(pair.SecretKey)
	pair.SecretKey = nil
	pair.PublicKey = nil
}

// Clone returns a deep copy of pair, so the caller can clear it independently.
func (pair *KeyPair) Clone() *KeyPair {
	if pair == nil {
		return nil
	}
	out := &KeyPair{}
	if pair.PublicKey != nil {
		pub := *pair.PublicKey
		out.PublicKey = &pub
	}
	if pair.SecretKey != nil {
		sec := *pair.SecretKey
		out.SecretKey = &sec
	}
	return out
}
