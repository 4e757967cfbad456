package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	kerrors "github.com/PolarWolf314/quill/internal/errors"

	"golang.org/x/term"
)

// readPassword prompts without echoing input. Tests replace it.
var readPassword = readPassphrase

// confirmBiometric gates the device credential behind an explicit y/N answer
// on the terminal. Tests replace it.
var confirmBiometric = confirmOnTTY

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

// readPassphrase reads from stdin when it is a terminal, otherwise from the
// controlling TTY so entry content can still be piped in.
func readPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		tty, err := os.Open(ttyPath())
		if err != nil {
			return nil, fmt.Errorf("cannot read password: stdin is not a terminal")
		}
		defer tty.Close()
		fd = int(tty.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("cannot read password: %s is not a terminal", ttyPath())
		}
	}

	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func confirmOnTTY(ctx context.Context, userID string) (bool, error) {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false, kerrors.ErrBiometricUnavailable
	}
	defer tty.Close()

	fmt.Fprintf(os.Stderr, "Unlock quill for %s on this device? [y/N] ", userID)

	answers := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(tty).ReadString('\n')
		answers <- line
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr)
		return false, kerrors.ErrBiometricCancelled
	case line := <-answers:
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
