package cmd

// Testing utilities shared between command tests: an isolated environment,
// scripted password prompts and captured output.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/quill/internal/configs"
)

const testUserID = "test-user"

// setupTestEnvironment points the config and data directories at a temp
// directory and writes a config with a cheap KDF.
func setupTestEnvironment(t *testing.T) *configs.Settings {
	t.Helper()
	return setupTestEnvironmentWithConfig(t, func(*configs.Config) {})
}

func setupTestEnvironmentWithConfig(t *testing.T, configure func(*configs.Config)) *configs.Settings {
	t.Helper()

	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tempDir, "data"))
	t.Setenv("NO_COLOR", "1")

	settings, err := configs.NewSettings()
	if err != nil {
		t.Fatalf("Failed to resolve settings: %v", err)
	}

	config := configs.DefaultConfig()
	config.User.UserID = testUserID
	config.KDF = configs.KDF{Time: 1, MemoryKiB: 64, Threads: 1}
	configure(config)
	if err := configs.SaveConfig(settings.ConfigPath(), config); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	originalReadPassword := readPassword
	originalConfirm := confirmBiometric
	confirmBiometric = func(context.Context, string) (bool, error) { return false, nil }
	t.Cleanup(func() {
		readPassword = originalReadPassword
		confirmBiometric = originalConfirm
		ResetGlobalState()
	})

	return settings
}

// stubPasswords answers password prompts with the given values in order.
func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	queue := passwords
	readPassword = func(prompt string) ([]byte, error) {
		if len(queue) == 0 {
			t.Errorf("Unexpected password prompt: %q", prompt)
			return nil, fmt.Errorf("no password scripted for %q", prompt)
		}
		next := queue[0]
		queue = queue[1:]
		return []byte(next), nil
	}
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	// A nil slice makes cobra fall back to os.Args.
	RootCmd.SetArgs(append([]string{}, args...))
	return captureOutput(func() error {
		return RootCmd.ExecuteContext(context.Background())
	})
}

// mustRun executes the root command and fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := runCommand(t, args...)
	if err != nil {
		t.Fatalf("Command %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}

// signupTestUser creates keys for testUserID with password.
func signupTestUser(t *testing.T, password string) {
	t.Helper()
	stubPasswords(t, password, password)
	mustRun(t, "signup")
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	copyTo := func(r io.Reader, out chan<- string) {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		out <- buf.String()
	}
	go copyTo(stdoutReader, stdoutChan)
	go copyTo(stderrReader, stderrChan)

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// captureStdout is captureOutput without stderr, for commands that print JSON.
func captureStdout(t *testing.T, args ...string) string {
	t.Helper()
	ResetGlobalState()
	// A nil slice makes cobra fall back to os.Args.
	RootCmd.SetArgs(append([]string{}, args...))

	originalStdout := os.Stdout
	reader, writer, _ := os.Pipe()
	os.Stdout = writer

	out := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, reader)
		out <- buf.String()
	}()

	err := RootCmd.ExecuteContext(context.Background())

	writer.Close()
	os.Stdout = originalStdout
	output := <-out

	if err != nil {
		t.Fatalf("Command %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}
