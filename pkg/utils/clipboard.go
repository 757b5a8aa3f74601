package utils

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility is present
var ErrClipboardUnsupported = errors.New("clipboard not supported on this system")

// Clipboard receives the finished document
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// MemoryClipboard keeps the last written text. Used by --stdout and tests.
type MemoryClipboard struct {
	Text   string
	Writes int
	Err    error
}

func (m *MemoryClipboard) WriteAll(text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Text = text
	m.Writes++
	return nil
}
