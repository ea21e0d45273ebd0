package tui

import (
	"fmt"
	"strings"

	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/composer"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// inputView wraps the composer with a textarea, the attachment menu and
// the path prompt that replaces a file picker
type inputView struct {
	draft    *composer.Composer
	textarea textarea.Model

	// set while asking for a file path
	pathKind conversation.Kind
	path     textinput.Model
	err      string
}

func newInputView() inputView {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle = ta.FocusedStyle
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	path := textinput.New()
	path.CharLimit = 1024

	return inputView{
		draft:    composer.New(),
		textarea: ta,
		path:     path,
	}
}

func (v *inputView) setWidth(width int) {
	v.textarea.SetWidth(width - 4)
	v.path.Width = width - 12
}

func (v inputView) prompting() bool {
	return v.pathKind != ""
}

func (v *inputView) startPathPrompt(kind conversation.Kind) {
	v.pathKind = kind
	v.err = ""
	v.path.SetValue("")
	if kind == conversation.KindPDF {
		v.path.Placeholder = "path to a PDF"
	} else {
		v.path.Placeholder = "path to an image (png, jpg, gif, webp)"
	}
	v.textarea.Blur()
	v.path.Focus()
	if v.draft.MenuOpen() {
		v.draft.ToggleMenu()
	}
}

func (v *inputView) stopPathPrompt() {
	v.pathKind = ""
	v.path.Blur()
	v.textarea.Focus()
}

// attach records a file picked through the path prompt. A file of the
// wrong kind for the menu entry is refused.
func (v *inputView) attach(att attachments.Attachment, err error) {
	kind := v.pathKind
	v.stopPathPrompt()
	switch {
	case err != nil:
		v.err = err.Error()
	case kind != "" && att.Kind != kind:
		v.err = fmt.Sprintf("%s is not a %s", att.Name, kind)
	default:
		v.err = ""
		v.draft.Attach(att)
	}
}

// submit hands the draft to the composer and clears the textarea on success
func (v *inputView) submit() (composer.Outbound, bool) {
	v.draft.SetText(v.textarea.Value())
	out, ok := v.draft.Submit()
	if ok {
		v.textarea.Reset()
		v.err = ""
	}
	return out, ok
}

func (v inputView) update(msg tea.Msg) (inputView, tea.Cmd) {
	var cmd tea.Cmd
	if v.prompting() {
		v.path, cmd = v.path.Update(msg)
		return v, cmd
	}
	v.textarea, cmd = v.textarea.Update(msg)
	return v, cmd
}

func (v inputView) view(width int, focused, loading bool) string {
	var sections []string

	if att, ok := v.draft.Attachment(); ok {
		label := fmt.Sprintf("[%s] %s  %.2f MB", att.Kind, att.Name, att.SizeMB())
		if att.Pages > 0 {
			label += fmt.Sprintf("  %d pages", att.Pages)
		}
		if att.Width > 0 {
			label += fmt.Sprintf("  %dx%d", att.Width, att.Height)
		}
		sections = append(sections, attachmentStyle.Render(label)+hintStyle.Render("  ctrl+x remove"))
	}

	if v.draft.MenuOpen() {
		sections = append(sections, menuStyle.Render("i  Image\np  PDF"))
	}

	if v.prompting() {
		sections = append(sections, "Attach "+string(v.pathKind)+": "+v.path.View())
		sections = append(sections, hintStyle.Render("enter attach • esc cancel"))
	} else {
		sections = append(sections, v.textarea.View())
	}

	if v.err != "" {
		sections = append(sections, errorStyle.Render(v.err))
	}

	if !loading && !v.prompting() {
		hint := "enter send • alt+enter newline • ctrl+a attach"
		if v.draft.MenuOpen() {
			hint = "i image • p pdf • esc close"
		}
		sections = append(sections, hintStyle.Render(hint))
	}

	style := inputPanelStyle
	if focused {
		style = inputFocusedStyle
	}
	return style.Width(width - 2).Render(strings.Join(sections, "\n"))
}
