package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readsync/internal/config"
)

func TestNewWriter_TerminalOnly(t *testing.T) {
	var term bytes.Buffer

	w, closeFn := newWriter(&term, config.Log{})
	fmt.Fprint(w, "hello")

	assert.Equal(t, "hello", term.String())
	assert.NoError(t, closeFn())
}

func TestNewWriter_TeesToRotatingFile(t *testing.T) {
	var term bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "readsync.log")

	w, closeFn := newWriter(&term, config.Log{File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	fmt.Fprintln(w, "user [alice] logged in on unidentified device")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logged in")
	assert.Contains(t, term.String(), "logged in")
}
