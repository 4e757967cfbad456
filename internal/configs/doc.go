// Package configs manages quill's configuration and file locations.
//
// Configuration is stored in TOML at $XDG_CONFIG_HOME/quill/config.toml:
//
//	[user]
//	user_id = "..."            # generated on first signup
//
//	[backend]
//	url = "https://api.example.com"
//	token_env = "QUILL_TOKEN"  # bearer token is read from this variable
//
//	[kdf]
//	time = 3
//	memory_kib = 65536
//	threads = 4
//
//	[session]
//	purge_on_lock = false
//
// A missing file yields DefaultConfig. The token itself is never written to
// the config file.
//
// # Settings
//
// Settings resolves the data directory ($XDG_DATA_HOME/quill, falling back
// to ~/.local/share/quill) holding keys.json, the biometric credential
// directory and audit.jsonl.
package configs
