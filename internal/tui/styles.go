package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#A78BFA")
	colorBlue   = lipgloss.Color("#60A5FA")
	colorText   = lipgloss.Color("#E5E7EB")
	colorDim    = lipgloss.Color("#9CA3AF")
	colorMute   = lipgloss.Color("#4B5563")
	colorError  = lipgloss.Color("#F87171")
	colorOK     = lipgloss.Color("#34D399")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	okStyle = lipgloss.NewStyle().
		Foreground(colorOK)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	// Sidebar
	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMute).
			Padding(0, 1)

	sidebarFocusedStyle = sidebarStyle.
				BorderForeground(colorAccent)

	newChatStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	conversationStyle = lipgloss.NewStyle().
				Foreground(colorText)

	activeConversationStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	createdAtStyle = lipgloss.NewStyle().
			Foreground(colorMute)

	// Thread
	threadStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMute)

	userBubbleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(lipgloss.Color("#4C1D95")).
			Padding(0, 1)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorMute).
			Italic(true)

	generatedImageStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(colorBlue).
				Padding(0, 1)

	// Composer
	inputPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMute).
			Padding(0, 1)

	inputFocusedStyle = inputPanelStyle.
				BorderForeground(colorAccent)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	// Overlays
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	alertStyle = overlayStyle.
			BorderForeground(colorError)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
