package tui

import (
	"context"
	"strings"

	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldHomeserver = iota
	fieldUsername
	fieldPassword
)

// LoginModel adds an account: homeserver, username and password.
type LoginModel struct {
	ctx    context.Context
	engine Engine

	inputs  []textinput.Model
	focus   int
	busy    bool
	message string
	isError bool
}

func NewLoginModel(ctx context.Context, engine Engine) *LoginModel {
	homeserver := textinput.New()
	homeserver.Placeholder = "https://matrix.org"
	homeserver.Prompt = "Homeserver: "
	homeserver.Focus()

	username := textinput.New()
	username.Placeholder = "alice"
	username.Prompt = "Username:   "

	password := textinput.New()
	password.Prompt = "Password:   "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginModel{
		ctx:    ctx,
		engine: engine,
		inputs: []textinput.Model{homeserver, username, password},
	}
}

func (m *LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *LoginModel) capturingText() bool {
	return true
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.esc):
			if len(m.engine.Accounts()) == 0 {
				return m, func() tea.Msg { return quitMsg{} }
			}
			m.reset()
			return m, func() tea.Msg { return NavigateTo{Page: pageMain} }
		case key.Matches(msg, keys.tab), msg.String() == "down":
			m.focusNext()
			return m, nil
		case msg.String() == "shift+tab", msg.String() == "up":
			m.focusPrev()
			return m, nil
		case key.Matches(msg, keys.enter):
			if m.focus < fieldPassword {
				m.focusNext()
				return m, nil
			}
			return m, m.submit()
		}

		if m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.message = humanizeError(msg.err)
			m.isError = true
			return m, nil
		}
		label := msg.account.Label
		m.reset()
		return m, tea.Batch(
			func() tea.Msg { return NavigateTo{Page: pageMain} },
			func() tea.Msg { return actionDoneMsg{status: "Signed in as " + label} },
		)
	}

	return m, nil
}

func (m *LoginModel) submit() tea.Cmd {
	if m.busy {
		return nil
	}

	creds := models.Credentials{
		Homeserver: strings.TrimSpace(m.inputs[fieldHomeserver].Value()),
		Username:   strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Password:   []byte(m.inputs[fieldPassword].Value()),
	}
	m.inputs[fieldPassword].Reset()

	if creds.Homeserver == "" || creds.Username == "" || len(creds.Password) == 0 {
		clear(creds.Password)
		m.message = "All fields are required"
		m.isError = true
		return nil
	}

	m.busy = true
	m.message = "Signing in..."
	m.isError = false

	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		account, err := engine.AddAccount(ctx, creds)
		return loginResultMsg{account: account, err: err}
	}
}

func (m *LoginModel) focusNext() {
	m.setFocus((m.focus + 1) % len(m.inputs))
}

func (m *LoginModel) focusPrev() {
	m.setFocus((m.focus - 1 + len(m.inputs)) % len(m.inputs))
}

func (m *LoginModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *LoginModel) reset() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.setFocus(fieldHomeserver)
	m.message = ""
	m.isError = false
	m.busy = false
}

func (m *LoginModel) View() string {
	var b strings.Builder
	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString("\n")
		if m.isError {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(helpStyle.Render(m.message))
		}
	}

	return appStyle.Render(renderPage(titleStyle.Render("ADD ACCOUNT"), b.String(),
		helpStyle.Render("tab: next field • enter: sign in • esc: back")))
}
