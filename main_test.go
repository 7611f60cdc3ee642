package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written to by the watch loop while the test reads it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runArgs(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunExampleFile(t *testing.T) {
	stdout, _, err := runArgs("example/title.md")
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode(err))
	assert.Equal(t, "<h1 id=\"title\">Title</h1>\n<p>Some <em>text</em>.</p>\n", stdout)
}

func TestRunEmptyFile(t *testing.T) {
	stdout, _, err := runArgs(writeTempFile(t, "empty.md", nil))
	require.NoError(t, err)
	assert.Equal(t, "\n", stdout)
}

func TestRunArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two files", []string{"example/title.md", "example/title.md"}},
		{"unknown flag", []string{"--frobnicate", "example/title.md"}},
		{"missing flag value", []string{"example/title.md", "--config"}},
		{"missing config file", []string{"--config", "example/nope.toml", "example/title.md"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, err := runArgs(tc.args...)

			var argErr *ArgumentError
			require.True(t, errors.As(err, &argErr), "expected ArgumentError, got %v", err)
			assert.Equal(t, 2, exitCode(err))
			assert.Empty(t, stdout)
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	stdout, _, err := runArgs(filepath.Join(t.TempDir(), "missing.md"))

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, stdout)
}

func TestRunInvalidEncoding(t *testing.T) {
	stdout, _, err := runArgs(writeTempFile(t, "latin1.md", []byte("caf\xe9\n")))
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, stdout)
}

// chdirTemp switches into a fresh temp dir for the duration of the test
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
	return dir
}

func TestRunFileStartingWithDash(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile("-notes.md", []byte("# Notes\n"), 0644))

	stdout, _, err := runArgs("-notes.md")
	require.NoError(t, err)
	assert.Equal(t, "<h1 id=\"notes\">Notes</h1>\n", stdout)

	stdout, _, err = runArgs("--document", "--", "-notes.md")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<title>Notes</title>")
}

func TestRunLoneFlagIsTreatedAsFile(t *testing.T) {
	chdirTemp(t)

	stdout, _, err := runArgs("--watch")

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.Equal(t, "--watch", ioErr.Path)
	assert.Empty(t, stdout)
}

func TestRunHelp(t *testing.T) {
	stdout, stderr, err := runArgs("--help")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage: md2html [OPTIONS] [--] <FILE>")
}

func TestRunWithConfig(t *testing.T) {
	stdout, _, err := runArgs("-c", "example/config.toml", "example/title.md")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>\n<p>Some <em>text</em>.</p>\n", stdout)
}

func TestRunCompleteDocument(t *testing.T) {
	stdout, _, err := runArgs("--document", "example/title.md")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<!DOCTYPE html>")
	assert.Contains(t, stdout, "<title>Title</title>")
	assert.Contains(t, stdout, "<p>Some <em>text</em>.</p>")
}

func TestRunOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "title.html")

	stdout, _, err := runArgs("-o", dest, "example/title.md")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<h1 id=\"title\">Title</h1>\n<p>Some <em>text</em>.</p>\n", string(content))
}

func TestRunOutputFileUnwritable(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing-dir", "title.html")

	_, _, err := runArgs("-o", dest, "example/title.md")

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.Equal(t, dest, ioErr.Path)
}

func TestRunWatch(t *testing.T) {
	file := writeTempFile(t, "watched.md", []byte("# One\n"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--watch", file}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("One</h1>"))
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(file, []byte("# Two\n"), 0644))

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Two</h1>"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(&ArgumentError{Msg: "no file"}))
	assert.Equal(t, 1, exitCode(&IOError{Path: "a.md", Err: fs.ErrNotExist}))
	assert.Equal(t, 1, exitCode(&ConversionError{Path: "a.md", Err: errors.New("boom")}))
	assert.Equal(t, 1, exitCode(errors.New("other")))
}

func TestRunWatchKeepsGoingAfterError(t *testing.T) {
	file := writeTempFile(t, "watched.md", []byte("# One\n"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-w", file}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("One</h1>"))
	}, 5*time.Second, 20*time.Millisecond)

	var logs syncBuffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	require.NoError(t, os.WriteFile(file, []byte("caf\xe9\n"), 0644))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte(ErrInvalidEncoding.Error()))
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(file, []byte("# Two\n"), 0644))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Two</h1>"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
