package entries

import "github.com/PolarWolf314/quill/internal/keys"

// ValidateEncryptedData checks that all four envelope fields are present,
// canonical Base64 and no shorter than a real envelope could be.
func ValidateEncryptedData(data *EncryptedData) bool {
	if data == nil {
		return false
	}
	if !keys.IsBase64(data.EncryptedContentB64, MinContentSize) {
		return false
	}
	if !keys.IsBase64(data.EncryptedEntryKeyB64, WrappedKeySize) {
		return false
	}
	return isNonce(data.ContentNonceB64) && isNonce(data.KeyNonceB64)
}

func isNonce(s string) bool {
	_, err := keys.DecodeNonce(s)
	return err == nil
}
