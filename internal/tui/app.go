package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobchat/cli/config"
	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/auth"
	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/bobchat/cli/internal/messaging"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// Deps are the services the TUI renders and drives
type Deps struct {
	Config  *config.Config
	Store   *conversation.Store
	Gateway *messaging.Gateway
	Auth    *auth.Service
	Backend *backend.Client
	Cache   *attachments.Cache
	Now     func() time.Time
}

type screen int

const (
	screenAuth screen = iota
	screenChat
)

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

const lastConversationAlert = "Cannot delete the last conversation!"

// Model is the root bubbletea model
type Model struct {
	ctx  context.Context
	deps Deps

	screen screen
	focus  focus

	auth    authForm
	sidebar sidebar
	thread  threadView
	input   inputView
	spinner spinner.Model

	loading      bool
	alert        string
	showSettings bool
	status       string
	err          error

	width  int
	height int
}

// New creates the root model. Without a stored token it opens on the
// login form.
func New(ctx context.Context, deps Deps, signedIn bool) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	m := Model{
		ctx:     ctx,
		deps:    deps,
		screen:  screenAuth,
		auth:    newAuthForm(modeLogin),
		thread:  newThreadView(),
		input:   newInputView(),
		spinner: s,
	}
	if signedIn {
		m.screen = screenChat
	}
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits
func Run(ctx context.Context, deps Deps, signedIn bool) error {
	p := tea.NewProgram(
		New(ctx, deps, signedIn),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}

// Err returns the fault that stopped the program, if any
func (m Model) Err() error {
	return m.err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, textinput.Blink)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screenAuth {
			m.auth, cmd = m.auth.update(m.ctx, msg, m.deps.Auth)
			return m, cmd
		}
		m, cmd = m.handleKey(msg)
		m.layout()
		return m, cmd

	case loginDoneMsg:
		m.auth.submitting = false
		if msg.err != nil {
			m.auth.err = auth.ErrorMessage(msg.err)
			return m, nil
		}
		m.screen = screenChat
		m.auth = newAuthForm(modeLogin)
		m.status = ""
		m.refresh()
		return m, textarea.Blink

	case signupDoneMsg:
		if msg.err != nil {
			m.auth.submitting = false
			m.auth.err = auth.ErrorMessage(msg.err)
			return m, nil
		}
		m.auth = newAuthForm(modeLogin)
		m.auth.info = "Signup successful! Please login now."
		return m, textinput.Blink

	case replyMsg:
		m.loading = false
		if m.focus == focusInput {
			m.input.textarea.Focus()
		}
		if err := m.deps.Store.AppendTo(m.ctx, msg.conversationID, msg.message); err != nil {
			if !errors.Is(err, conversation.ErrConversationNotFound) {
				return m.fail(err)
			}
			log.Warn().Str("conversation", msg.conversationID).Msg("reply for deleted conversation dropped")
		}
		m.refresh()
		return m, textarea.Blink

	case attachedMsg:
		m.input.attach(msg.attachment, msg.err)
		m.layout()
		return m, textarea.Blink

	case downloadedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("download failed")
			m.status = errorStyle.Render("Download failed: " + msg.err.Error())
		} else {
			m.status = okStyle.Render("Saved " + msg.path)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	if m.screen == screenAuth {
		m.auth, cmd = m.auth.update(m.ctx, msg, m.deps.Auth)
		cmds = append(cmds, cmd)
	} else {
		m.input, cmd = m.input.update(msg)
		cmds = append(cmds, cmd)
		m.thread.viewport, cmd = m.thread.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	if m.showSettings {
		switch key {
		case "esc", "ctrl+o", "q":
			m.showSettings = false
		case "ctrl+l":
			m.showSettings = false
			return m.logout()
		}
		return m, nil
	}

	switch key {
	case "ctrl+o":
		m.showSettings = true
		return m, nil
	case "ctrl+n":
		return m.newConversation()
	case "ctrl+l":
		return m.logout()
	case "ctrl+g":
		return m.download()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.thread.viewport, cmd = m.thread.viewport.Update(msg)
		return m, cmd
	case "tab":
		if !m.input.prompting() {
			m.toggleFocus()
			return m, nil
		}
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(key)
	}
	return m.handleInputKey(msg)
}

func (m *Model) toggleFocus() {
	if m.focus == focusSidebar {
		m.focus = focusInput
		if !m.loading {
			m.input.textarea.Focus()
		}
		return
	}
	m.focus = focusSidebar
	m.input.textarea.Blur()
	m.sidebar.follow(m.deps.Store.Conversations(), m.deps.Store.ActiveID())
}

func (m Model) handleSidebarKey(key string) (Model, tea.Cmd) {
	convs := m.deps.Store.Conversations()

	switch key {
	case "up", "k":
		m.sidebar.move(-1, len(convs))
	case "down", "j":
		m.sidebar.move(1, len(convs))
	case "enter":
		if c, ok := m.sidebar.selected(convs); ok {
			m.deps.Store.Select(c.ID)
			m.refresh()
			m.toggleFocus()
		}
	case "esc":
		m.toggleFocus()
	case "d", "delete":
		c, ok := m.sidebar.selected(convs)
		if !ok {
			return m, nil
		}
		err := m.deps.Store.Delete(m.ctx, c.ID)
		switch {
		case errors.Is(err, conversation.ErrLastConversation):
			m.alert = lastConversationAlert
		case err != nil:
			return m.fail(err)
		default:
			m.sidebar.move(0, m.deps.Store.Len())
			m.refresh()
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	var cmd tea.Cmd

	if m.input.prompting() {
		switch key {
		case "esc":
			m.input.stopPathPrompt()
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.input.path.Value())
			if path == "" {
				return m, nil
			}
			return m, m.inspect(path)
		}
		m.input, cmd = m.input.update(msg)
		return m, cmd
	}

	if m.input.draft.MenuOpen() {
		switch key {
		case "i":
			m.input.startPathPrompt(conversation.KindImage)
			return m, textinput.Blink
		case "p":
			m.input.startPathPrompt(conversation.KindPDF)
			return m, textinput.Blink
		case "esc", "ctrl+a":
			m.input.draft.ToggleMenu()
		}
		return m, nil
	}

	switch key {
	case "ctrl+a":
		if !m.loading {
			m.input.draft.ToggleMenu()
		}
		return m, nil
	case "ctrl+x":
		m.input.draft.RemoveAttachment()
		return m, nil
	case "enter":
		return m.send()
	}

	if m.loading {
		return m, nil
	}
	m.input, cmd = m.input.update(msg)
	return m, cmd
}

// send appends the user message and starts the single in-flight request
func (m Model) send() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	out, ok := m.input.submit()
	if !ok {
		return m, nil
	}

	convID := m.deps.Store.ActiveID()
	user := conversation.NewUserMessage(out.Content, m.deps.Now())
	if err := m.deps.Store.Append(m.ctx, user); err != nil {
		return m.fail(err)
	}

	m.loading = true
	m.status = ""
	m.input.textarea.Blur()
	m.refresh()

	gateway, ctx := m.deps.Gateway, m.ctx
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return replyMsg{conversationID: convID, message: gateway.Send(ctx, out)}
		},
	)
}

func (m Model) inspect(path string) tea.Cmd {
	cache := m.deps.Cache
	return func() tea.Msg {
		att, err := attachments.Inspect(path)
		if err == nil && cache != nil {
			att, err = cache.Store(att)
		}
		return attachedMsg{attachment: att, err: err}
	}
}

func (m Model) newConversation() (Model, tea.Cmd) {
	c, err := m.deps.Store.Create(m.ctx)
	if err != nil {
		return m.fail(err)
	}
	m.sidebar.follow(m.deps.Store.Conversations(), c.ID)
	m.refresh()
	return m, nil
}

func (m Model) logout() (Model, tea.Cmd) {
	if err := m.deps.Auth.Logout(m.ctx); err != nil {
		m.status = errorStyle.Render(err.Error())
		return m, nil
	}
	m.screen = screenAuth
	m.auth = newAuthForm(modeLogin)
	return m, textinput.Blink
}

func (m Model) download() (Model, tea.Cmd) {
	active, _ := m.deps.Store.Active()
	msg, ok := messaging.LatestGeneratedImage(active.Messages)
	if !ok {
		m.status = hintStyle.Render("No generated image in this conversation")
		return m, nil
	}

	client, ctx, dir := m.deps.Backend, m.ctx, m.deps.Config.Paths.DownloadDir
	m.status = hintStyle.Render("Downloading...")
	return m, func() tea.Msg {
		path, err := messaging.SaveGeneratedImage(ctx, client, msg, dir)
		return downloadedMsg{path: path, err: err}
	}
}

// fail records a storage fault and stops the program
func (m Model) fail(err error) (Model, tea.Cmd) {
	log.Error().Err(err).Msg("fatal store error")
	m.err = err
	return m, tea.Quit
}

func (m *Model) sidebarWidth() int {
	w := m.width / 4
	if w < 24 {
		w = 24
	}
	if w > 36 {
		w = 36
	}
	return w
}

// layout sizes the thread to whatever the composer leaves over
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.sidebar.width = m.sidebarWidth()
	mainWidth := m.width - m.sidebar.width
	m.input.setWidth(mainWidth)

	inputHeight := lipgloss.Height(m.input.view(mainWidth, m.focus == focusInput, m.loading))
	threadHeight := m.height - inputHeight - 2 - 1 - 1
	if threadHeight < 3 {
		threadHeight = 3
	}

	wasBottom := m.thread.viewport.AtBottom()
	m.thread.resize(mainWidth-2, threadHeight)
	if wasBottom {
		m.thread.viewport.GotoBottom()
	}
}

// refresh re-renders the active conversation
func (m *Model) refresh() {
	if m.deps.Store == nil {
		return
	}
	active, _ := m.deps.Store.Active()
	m.thread.setMessages(active.Messages)
	if m.focus != focusSidebar {
		m.sidebar.follow(m.deps.Store.Conversations(), m.deps.Store.ActiveID())
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.screen == screenAuth {
		return m.auth.view(m.width, m.height)
	}
	if m.width == 0 {
		return loadingStyle.Render("  Initializing...")
	}

	if m.alert != "" {
		box := alertStyle.Render(m.alert + "\n\n" + hintStyle.Render("press any key"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	if m.showSettings {
		box := settingsView(m.deps.Config, m.deps.Backend.Token(), m.deps.Now())
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	mainWidth := m.width - m.sidebar.width
	thread := threadStyle.Width(mainWidth - 2).Render(m.thread.viewport.View())

	thinking := ""
	if m.loading {
		thinking = m.spinner.View() + loadingStyle.Render(" AI is thinking...")
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		thread,
		thinking,
		m.input.view(mainWidth, m.focus == focusInput, m.loading),
	)

	side := m.sidebar.view(
		m.deps.Store.Conversations(),
		m.deps.Store.ActiveID(),
		m.focus == focusSidebar,
		lipgloss.Height(main),
	)

	status := m.status
	if status == "" {
		status = "tab focus • ctrl+n new chat • ctrl+o settings • ctrl+g save image • ctrl+c quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, side, main),
		statusBarStyle.Render(status),
	)
}
