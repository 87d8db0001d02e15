package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetLevel(LevelError)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel(" Info "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelError, ParseLevel("loud"))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelInfo)

	Debug("hidden")
	Info("shown", "count", 3)
	Error("failed", errors.New("boom"), "uid", "a b")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown count=3")
	assert.Contains(t, out, `[ERROR] failed err=boom uid="a b"`)
}

func TestOddKeyValuesAreDropped(t *testing.T) {
	buf := capture(t, LevelDebug)

	Debug("msg", "k", "v", "dangling")

	assert.Contains(t, buf.String(), "[DEBUG] msg k=v\n")
}
