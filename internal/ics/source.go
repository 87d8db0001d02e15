package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	appLog "calpeek/internal/log"
)

// ErrEmptyInput is returned by Source.Read when the payload is blank.
var ErrEmptyInput = errors.New("no iCal data provided")

// Source names where calendar text comes from: a file path, or stdin when
// Path is empty or "-".
type Source struct {
	Path string
}

// IsStdin reports whether the source reads standard input.
func (s Source) IsStdin() bool {
	return s.Path == "" || s.Path == "-"
}

// Name returns a label for logs and messages.
func (s Source) Name() string {
	if s.IsStdin() {
		return "stdin"
	}
	return s.Path
}

// Read buffers the whole payload in memory. stdin is only consulted when the
// source is stdin.
func (s Source) Read(stdin io.Reader) ([]byte, error) {
	var (
		body []byte
		err  error
	)

	if s.IsStdin() {
		if stdin == nil {
			return nil, errors.New("stdin is not available")
		}
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name(), err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyInput
	}

	appLog.Debug("ics source read", "source", s.Name(), "bytes", len(body))
	return body, nil
}
