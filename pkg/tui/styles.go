package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

// Color constants
const (
	ColorActive   = "170" // Purple/magenta for active elements
	ColorInactive = "240" // Gray for inactive elements
	ColorNormal   = "245" // Light gray for normal text
	ColorDim      = "241" // Dimmer gray
	ColorWarning  = "214" // Orange/yellow for warnings
	ColorDanger   = "196" // Red for dangerous actions
	ColorSuccess  = "28"  // Green for success
	ColorWhite    = "255"
	ColorDark     = "235"
	ColorPrimary  = "33" // Blue for info
	ColorStatusBg = "62"
	ColorStatusFg = "230"
)

var (
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorNormal))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDanger)).
			Bold(true)

	// Echoed input lines
	EchoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDim))

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorActive)).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(ColorStatusBg)).
			Foreground(lipgloss.Color(ColorStatusFg)).
			Padding(0, 1)

	EditorBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorActive))

	HintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDim)).
			Italic(true)
)

// NoticeStyle picks the style for a notice level
func NoticeStyle(level models.NoticeLevel) lipgloss.Style {
	switch level {
	case models.NoticeSuccess:
		return SuccessStyle
	case models.NoticeWarning:
		return WarningStyle
	case models.NoticeError:
		return ErrorStyle
	default:
		return InfoStyle
	}
}

// TokenBadgeStyle colors the token count by how much of the nearest
// context window it fills
func TokenBadgeStyle(tokens int) lipgloss.Style {
	_, _, status := utils.GetTokenLimitStatus(tokens)
	switch status {
	case "good":
		return lipgloss.NewStyle().
			Background(lipgloss.Color(ColorSuccess)).
			Foreground(lipgloss.Color(ColorWhite)).
			Padding(0, 1).
			Bold(true)
	case "warning":
		return lipgloss.NewStyle().
			Background(lipgloss.Color(ColorWarning)).
			Foreground(lipgloss.Color(ColorDark)).
			Padding(0, 1).
			Bold(true)
	default:
		return lipgloss.NewStyle().
			Background(lipgloss.Color(ColorDanger)).
			Foreground(lipgloss.Color(ColorWhite)).
			Padding(0, 1).
			Bold(true)
	}
}
