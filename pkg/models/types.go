package models

import "fmt"

// Mode selects which workflow the session is in
type Mode int

const (
	// ModeManual is the file-selection workflow
	ModeManual Mode = iota
	// ModePrompt is the instruction-composition workflow
	ModePrompt
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModePrompt:
		return "prompt"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a user supplied mode name to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "manual", "m":
		return ModeManual, nil
	case "prompt", "p":
		return ModePrompt, nil
	default:
		return ModeManual, fmt.Errorf("unknown mode %q (must be: manual or prompt)", s)
	}
}

// EditorMode controls how raw input lines are collected
type EditorMode int

const (
	SingleLine EditorMode = iota
	MultiLine
)

func (e EditorMode) String() string {
	if e == MultiLine {
		return "multi-line"
	}
	return "single-line"
}

// NoticeLevel grades feedback shown to the user
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is one line (or block) of feedback produced by a command
type Notice struct {
	Level NoticeLevel
	Text  string
}
