package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSplitsLines(t *testing.T) {
	l := New("")
	_, err := l.Write([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, l.Lines())

	_, _ = l.Write([]byte("o\nthree\n"))
	assert.Equal(t, []string{"one", "two", "three"}, l.Lines())
}

func TestLinesIsCopy(t *testing.T) {
	l := New("")
	l.Log("a")
	lines := l.Lines()
	lines[0] = "b"
	assert.Equal(t, []string{"a"}, l.Lines())
}

func TestFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flex.txt")
	l := New(path)
	l.Log("first")
	l.Log("second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestSlog(t *testing.T) {
	l := New("")
	var echo bytes.Buffer
	log := l.Slog(slog.LevelInfo, &echo)
	log.Debug("hidden")
	log.Info("reset complete", "particles", 512)

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `msg="reset complete"`)
	assert.Contains(t, lines[0], "particles=512")
	assert.Equal(t, lines[0]+"\n", echo.String())
}
