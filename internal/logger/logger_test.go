package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, ParseLevel("debug"), DEBUG)
	assert.Equal(t, ParseLevel(" WARNING "), WARN)
	assert.Equal(t, ParseLevel("ERROR"), ERROR)
	assert.Equal(t, ParseLevel("loud"), INFO)
	assert.Equal(t, WARN.String(), "WARN")
}

func TestWritesFieldsAndFiltersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wbs.log")
	l, err := New(Config{Level: INFO, FilePath: path})
	assert.Equal(t, err, nil)

	l.Debug("hidden")
	l.WithFields(F("request_id", "r1")).Info("Document committed", F("version", "01J"))
	assert.Equal(t, l.Close(), nil)

	data, err := os.ReadFile(path)
	assert.Equal(t, err, nil)
	out := string(data)
	assert.Equal(t, strings.Contains(out, "hidden"), false)
	assert.Equal(t, strings.Contains(out, "INFO logger_test.go:"), true)
	assert.Equal(t, strings.Contains(out, "Document committed | request_id=r1 version=01J"), true)
}

func TestWithFieldsDoesNotLeak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wbs.log")
	l, _ := New(Config{Level: DEBUG, FilePath: path})
	defer l.Close()

	base := l.WithFields(F("a", 1))
	base.WithFields(F("b", 2)).Info("one")
	base.WithFields(F("c", 3)).Info("two")

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, len(lines), 2)
	assert.Equal(t, strings.HasSuffix(lines[1], "two | a=1 c=3"), true)
}

func TestRotatesBySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wbs.log")
	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxBackups: 2})
	assert.Equal(t, err, nil)

	for i := 0; i < 10; i++ {
		l.Info("a line long enough to push the file over its limit")
	}
	l.Close()

	_, err = os.Stat(path + ".1")
	assert.Equal(t, err, nil)
	_, err = os.Stat(path + ".2")
	assert.Equal(t, err, nil)
	_, err = os.Stat(path + ".3")
	assert.Equal(t, os.IsNotExist(err), true)
}
