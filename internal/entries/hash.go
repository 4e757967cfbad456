package entries

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// PreviewLength is the number of runes of content used when an entry has no explicit preview.
const PreviewLength = 100

// Hashes are digests of plaintext fields the server may index without seeing plaintext.
type Hashes struct {
	TitleHash   string `json:"titleHash"`
	ContentHash string `json:"contentHash"`
	PreviewHash string `json:"previewHash"`
}

// GenerateTitleHash returns the hex BLAKE2b-256 digest of title.
func GenerateTitleHash(title string) string {
	return digest(title)
}

// GenerateContentHash returns the hex BLAKE2b-256 digest of content.
func GenerateContentHash(content string) string {
	return digest(content)
}

// GeneratePreviewHash returns the hex BLAKE2b-256 digest of preview.
func GeneratePreviewHash(preview string) string {
	return digest(preview)
}

// GenerateHashes digests the title, content and preview of entry.
func GenerateHashes(entry *Entry) Hashes {
	if entry == nil {
		return Hashes{}
	}
	return Hashes{
		TitleHash:   GenerateTitleHash(entry.Title),
		ContentHash: GenerateContentHash(entry.Content),
		PreviewHash: GeneratePreviewHash(PreviewOf(entry)),
	}
}

// PreviewOf returns the explicit preview, or the first PreviewLength runes of content.
func PreviewOf(entry *Entry) string {
	if entry.Preview != "" {
		return entry.Preview
	}
	runes := []rune(entry.Content)
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return string(runes)
}

func digest(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
