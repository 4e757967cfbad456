package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// Out receives info and debug output. Defaults to os.Stdout.
	Out io.Writer
	// Err receives warnings and errors. Defaults to os.Stderr.
	Err io.Writer
}

// Discard returns a logger that writes nowhere.
func Discard() Logger {
	return Logger{Out: io.Discard, Err: io.Discard}
}

func (l Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) err() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.out(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.out(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.err(), color.YellowString("[warn] ")+msg+"\n", args...)
	}
}

// WarnfAlways prints a warning regardless of verbosity.
func (l Logger) WarnfAlways(msg string, args ...any) {
	fmt.Fprintf(l.err(), color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.err(), color.RedString("[error] ")+msg+"\n", args...)
	}
}

// ErrorfAndReturn logs the message and returns it as an error.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}
