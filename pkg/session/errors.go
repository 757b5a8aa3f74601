package session

import (
	"errors"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

var (
	// ErrPathNotFound is returned by add and remove for targets that do
	// not exist. Nothing is changed.
	ErrPathNotFound = files.ErrPathNotFound

	// ErrTokenizerUnavailable aborts the command it occurs in. The previous
	// document and count are kept.
	ErrTokenizerUnavailable = utils.ErrTokenizerUnavailable

	// ErrClipboard is returned by copy when the clipboard write fails. The
	// rebuilt document is still committed.
	ErrClipboard = errors.New("clipboard write failed")

	// ErrNotCapturing is returned when capture input arrives outside
	// multi-line mode
	ErrNotCapturing = errors.New("no instruction capture in progress")

	// ErrUnknownCommand is returned by Parse for an unrecognised command name
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage is returned by Parse when arguments don't fit the command
	ErrUsage = errors.New("invalid usage")
)
