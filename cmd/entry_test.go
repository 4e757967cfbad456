package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/quill/internal/encryption"
	"github.com/PolarWolf314/quill/internal/entries"
	"github.com/PolarWolf314/quill/internal/keys"
)

func encryptTestEntry(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "monday.json")
	stubPasswords(t, testPassword)
	output := mustRun(t, "encrypt", "--title", "Monday", "--content", "Rain all day.", "--tags", "weather,home", "-o", path)
	if !strings.Contains(output, "Encrypted entry written to") {
		t.Fatalf("Expected encrypt success, got: %s", output)
	}
	return path
}

func loadEncrypted(t *testing.T, path string) *entries.EncryptedData {
	t.Helper()
	var data entries.EncryptedData
	if err := readJSONFile(path, &data); err != nil {
		t.Fatalf("Failed to read encrypted entry: %v", err)
	}
	return &data
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	path := encryptTestEntry(t, t.TempDir())

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if strings.Contains(string(raw), "Rain all day.") {
		t.Fatal("Encrypted output contains plaintext")
	}

	stubPasswords(t, testPassword)
	var entry entries.Entry
	if err := json.Unmarshal([]byte(captureStdout(t, "decrypt", "-i", path, "--json")), &entry); err != nil {
		t.Fatalf("Failed to parse decrypted entry: %v", err)
	}
	if entry.Title != "Monday" || entry.Content != "Rain all day." {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if len(entry.Tags) != 2 || entry.Tags[0] != "weather" {
		t.Errorf("Unexpected tags: %v", entry.Tags)
	}

	stubPasswords(t, testPassword)
	if output := mustRun(t, "decrypt", "-i", path); !strings.Contains(output, "'Monday'") || !strings.Contains(output, "Rain all day.") {
		t.Errorf("Expected readable entry, got: %s", output)
	}
}

func TestEncrypt_WrongPassword(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	outPath := filepath.Join(t.TempDir(), "entry.json")

	stubPasswords(t, "not the password")
	output := mustRun(t, "encrypt", "--title", "x", "-o", outPath)
	if !strings.Contains(output, "Wrong password") {
		t.Errorf("Expected wrong password message, got: %s", output)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("Nothing should be written on a wrong password")
	}
}

func TestEncrypt_NoKeys(t *testing.T) {
	setupTestEnvironment(t)
	stubPasswords(t)

	output := mustRun(t, "encrypt", "--title", "x")
	if !strings.Contains(output, "No keys found") {
		t.Errorf("Expected missing keys message, got: %s", output)
	}
}

func TestEncrypt_RequiresContent(t *testing.T) {
	setupTestEnvironment(t)
	stubPasswords(t)

	if _, err := runCommand(t, "encrypt"); err == nil {
		t.Error("Expected an error without entry input")
	}
}

func TestEncrypt_ExistingKey(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	dir := t.TempDir()
	original := encryptTestEntry(t, dir)

	edited := filepath.Join(dir, "edited.json")
	stubPasswords(t, testPassword)
	mustRun(t, "encrypt", "--existing", original, "--title", "Monday", "--content", "Sun came out.", "-o", edited)

	before, after := loadEncrypted(t, original), loadEncrypted(t, edited)
	if before.Key() != after.Key() {
		t.Error("Re-encrypting with the existing key should keep the key wrapping")
	}
	if before.EncryptedContentB64 == after.EncryptedContentB64 {
		t.Error("Content ciphertext should change")
	}
}

func TestShare(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	dir := t.TempDir()
	path := encryptTestEntry(t, dir)

	var status StatusResult
	if err := json.Unmarshal([]byte(captureStdout(t, "status", "--json")), &status); err != nil {
		t.Fatalf("Failed to parse status JSON: %v", err)
	}

	recipient, err := keys.NewManager().GenerateUserKeys()
	if err != nil {
		t.Fatalf("Failed to generate recipient keys: %v", err)
	}

	accessPath := filepath.Join(dir, "access.json")
	stubPasswords(t, testPassword)
	output := mustRun(t, "share", "-i", path,
		"--entry-id", "entry-1",
		"--recipient-id", "bob",
		"--recipient-key", keys.EncodeKey(recipient.PublicKey),
		"-o", accessPath)
	if !strings.Contains(output, "Shared with 'bob'") {
		t.Fatalf("Expected share success, got: %s", output)
	}

	var access encryption.AccessKey
	if err := readJSONFile(accessPath, &access); err != nil {
		t.Fatalf("Failed to read access key: %v", err)
	}
	if access.EntryID != "entry-1" || access.UserID != "bob" {
		t.Errorf("Unexpected access key: %+v", access)
	}

	owner, err := keys.DecodeKey(status.PublicKey)
	if err != nil {
		t.Fatalf("Failed to decode owner key: %v", err)
	}
	shared := loadEncrypted(t, path).WithKey(entries.WrappedKey{
		EncryptedEntryKeyB64: access.EncryptedEntryKeyB64,
		KeyNonceB64:          access.KeyNonceB64,
	})
	entry, ok := entries.NewCryptor().DecryptEntry(&shared, recipient.SecretKey, owner)
	if !ok {
		t.Fatal("Recipient could not decrypt the shared entry")
	}
	if entry.Title != "Monday" {
		t.Errorf("Unexpected shared entry: %+v", entry)
	}
}

func TestShare_InvalidRecipientKey(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	path := encryptTestEntry(t, t.TempDir())

	stubPasswords(t, testPassword)
	output := mustRun(t, "share", "-i", path, "--entry-id", "e", "--recipient-id", "bob", "--recipient-key", "not-base64!")
	if !strings.Contains(output, "Invalid key") {
		t.Errorf("Expected invalid key message, got: %s", output)
	}
}

func TestHash_NeedsNoPassword(t *testing.T) {
	setupTestEnvironment(t)
	stubPasswords(t)

	var hashes entries.Hashes
	if err := json.Unmarshal([]byte(captureStdout(t, "hash", "--title", "Monday", "--content", "Rain")), &hashes); err != nil {
		t.Fatalf("Failed to parse hashes: %v", err)
	}
	if hashes.TitleHash != entries.GenerateTitleHash("Monday") {
		t.Errorf("Unexpected title hash: %s", hashes.TitleHash)
	}
	if hashes.ContentHash != entries.GenerateContentHash("Rain") {
		t.Errorf("Unexpected content hash: %s", hashes.ContentHash)
	}
}

func TestEncryptDecrypt_KeepsExtraEntryFields(t *testing.T) {
	setupTestEnvironment(t)
	signupTestUser(t, testPassword)
	dir := t.TempDir()

	input := filepath.Join(dir, "entry.json")
	if err := os.WriteFile(input, []byte(`{"title":"t","content":"c","date":"2024-01-01","location":"Paris"}`), 0600); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	path := filepath.Join(dir, "entry.enc.json")
	stubPasswords(t, testPassword)
	mustRun(t, "encrypt", "-i", input, "-o", path)

	stubPasswords(t, testPassword)
	var decrypted map[string]string
	if err := json.Unmarshal([]byte(captureStdout(t, "decrypt", "-i", path, "--json")), &decrypted); err != nil {
		t.Fatalf("Failed to parse decrypted entry: %v", err)
	}
	if decrypted["date"] != "2024-01-01" || decrypted["location"] != "Paris" {
		t.Errorf("Expected extra fields to survive, got %v", decrypted)
	}
}
