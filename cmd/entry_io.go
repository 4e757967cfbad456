package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/quill/internal/entries"
)

// readJSONFile decodes path into v. A path of "-" reads stdin.
func readJSONFile(path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	output = append(output, '\n')

	if path == "" {
		_, err := os.Stdout.Write(output)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, output, 0600)
}

// entryFlags are the flags shared by commands that take a plaintext entry.
type entryFlags struct {
	input   string
	title   string
	content string
	preview string
	mood    string
	tags    []string
}

// entry builds the plaintext entry from --input, or from the individual
// flags when no input file is given.
func (f *entryFlags) entry() (*entries.Entry, error) {
	if f.input != "" {
		var entry entries.Entry
		if err := readJSONFile(f.input, &entry); err != nil {
			return nil, err
		}
		return &entry, nil
	}
	if strings.TrimSpace(f.title) == "" && strings.TrimSpace(f.content) == "" {
		return nil, fmt.Errorf("an entry needs --title, --content or --input")
	}
	return &entries.Entry{
		Title:   f.title,
		Content: f.content,
		Preview: f.preview,
		Mood:    f.mood,
		Tags:    f.tags,
	}, nil
}
