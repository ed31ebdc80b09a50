package app

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lectio/internal/engine"
)

// Color palette, warm and readable on dark terminals
var (
	colorPrimary = lipgloss.Color("#8B5CF6") // Violet
	colorTheory  = lipgloss.Color("#14B8A6") // Teal
	colorAccent  = lipgloss.Color("#F97316") // Orange
	colorSuccess = lipgloss.Color("#22C55E") // Green
	colorError   = lipgloss.Color("#F43F5E") // Rose
	colorText    = lipgloss.Color("#F8FAFC") // White
	colorDim     = lipgloss.Color("#94A3B8") // Slate
	colorBorder  = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	avatarStyle = lipgloss.NewStyle().
			Foreground(colorText)

	theoryStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTheory).
			Padding(0, 2).
			Width(72)

	scratchpadStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			Width(72)

	exerciseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			Width(72)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Italic(true)

	correctStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	summaryStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorSuccess).
			Padding(1, 3)
)

// avatarPrefix maps an emotion tag to the face shown before avatar
// speech. Emotions the renderer does not know fall back to neutral.
func avatarPrefix(emotion string) string {
	switch emotion {
	case engine.EmotionHappy:
		return "(^‿^)"
	case engine.EmotionExcited:
		return "(★‿★)"
	case engine.EmotionSad:
		return "(︶︹︶)"
	case engine.EmotionThinking:
		return "(・・?)"
	case engine.EmotionEncouraging:
		return "(ง •̀_•́)ง"
	case engine.EmotionTalking:
		return "(^o^)"
	default:
		return "(・_・)"
	}
}
