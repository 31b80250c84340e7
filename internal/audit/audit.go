// Package audit provides the run log shared by the verifier and the resolver.
//
// A Log writes human-readable timestamped lines to a file and mirrors them on
// the console. It is opened once at the start of a run and closed at the end.
package audit

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of every log line.
const TimeFormat = "2006-01-02 15:04:05"

// Log is an explicit, append-only run log.
type Log struct {
	zerolog.Logger
	file *os.File
	path string
}

// Open truncates the file at path, writes header as its first line, and
// returns a Log mirroring every entry to console. level is a zerolog level
// name; empty means info.
func Open(path, header string, console io.Writer, level string) (*Log, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}
	if header != "" {
		if _, err := fmt.Fprintln(f, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing log header: %w", err)
		}
	}

	writers := []io.Writer{newConsoleWriter(f)}
	if console != nil {
		writers = append(writers, newConsoleWriter(console))
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &Log{Logger: logger, file: f, path: path}, nil
}

// Console returns a Log that only writes to w.
func Console(w io.Writer, level string) (*Log, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(newConsoleWriter(w)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &Log{Logger: logger}, nil
}

// Nop returns a Log that discards everything.
func Nop() *Log {
	return &Log{Logger: zerolog.Nop()}
}

// Path returns the log file path, or "" for console-only logs.
func (l *Log) Path() string {
	return l.path
}

// Close flushes and closes the log file. It is safe to call more than once.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		l.file = nil
		return fmt.Errorf("flushing log: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func newConsoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: TimeFormat,
	}
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return lvl, nil
}
