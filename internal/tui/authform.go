package tui

import (
	"context"
	"strings"

	"github.com/bobchat/cli/internal/auth"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

// authForm is the login/signup screen shown when no token is stored
type authForm struct {
	mode       authMode
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
	info       string
}

func newAuthForm(mode authMode) authForm {
	f := authForm{mode: mode}
	f.reset()
	return f
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 256
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func (f *authForm) reset() {
	if f.mode == modeSignup {
		f.inputs = []textinput.Model{
			newInput("Username", false),
			newInput("Email Address", false),
			newInput("Password", true),
			newInput("Confirm Password", true),
		}
	} else {
		f.inputs = []textinput.Model{
			newInput("Email Address", false),
			newInput("Password", true),
		}
	}
	f.focus = 0
	f.inputs[0].Focus()
	f.submitting = false
}

func (f *authForm) switchMode() {
	if f.mode == modeLogin {
		f.mode = modeSignup
	} else {
		f.mode = modeLogin
	}
	f.err = ""
	f.info = ""
	f.reset()
}

func (f *authForm) moveFocus(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f authForm) value(i int) string {
	return f.inputs[i].Value()
}

func (f authForm) update(ctx context.Context, msg tea.Msg, svc *auth.Service) (authForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if f.submitting {
			return f, nil
		}
		switch key.String() {
		case "tab", "down":
			f.moveFocus(1)
			return f, nil
		case "shift+tab", "up":
			f.moveFocus(-1)
			return f, nil
		case "ctrl+t":
			f.switchMode()
			return f, nil
		case "enter":
			if f.focus < len(f.inputs)-1 {
				f.moveFocus(1)
				return f, nil
			}
			f.err = ""
			f.info = ""
			f.submitting = true
			return f, f.submit(ctx, svc)
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f authForm) submit(ctx context.Context, svc *auth.Service) tea.Cmd {
	if f.mode == modeSignup {
		form := auth.SignupForm{
			Username:        f.value(0),
			Email:           f.value(1),
			Password:        f.value(2),
			ConfirmPassword: f.value(3),
		}
		return func() tea.Msg {
			message, err := svc.Signup(ctx, form)
			return signupDoneMsg{message: message, err: err}
		}
	}

	email, password := f.value(0), f.value(1)
	return func() tea.Msg {
		return loginDoneMsg{err: svc.Login(ctx, email, password)}
	}
}

func (f authForm) view(width, height int) string {
	var b strings.Builder

	if f.mode == modeLogin {
		b.WriteString(titleStyle.Render("Welcome Back"))
	} else {
		b.WriteString(titleStyle.Render("Create Your Account"))
	}
	b.WriteString("\n\n")

	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if f.err != "" {
		b.WriteString(errorStyle.Render(f.err))
		b.WriteString("\n")
	}
	if f.info != "" {
		b.WriteString(okStyle.Render(f.info))
		b.WriteString("\n")
	}

	switch {
	case f.submitting:
		b.WriteString(loadingStyle.Render("Please wait..."))
	case f.mode == modeLogin:
		b.WriteString(hintStyle.Render("enter: Login  •  ctrl+t: Sign up instead"))
	default:
		b.WriteString(hintStyle.Render("enter: Sign Up  •  ctrl+t: Already registered? Login"))
	}

	card := overlayStyle.Render(b.String())
	if width == 0 || height == 0 {
		return card
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
