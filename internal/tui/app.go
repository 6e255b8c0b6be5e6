package tui

import (
	"github.com/MKhiriev/go-multimatrix/models"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	pageLogin = "login"
	pageMain  = "main"
)

// textCapturer is implemented by pages that are currently editing text, so
// that global hotkeys do not steal keystrokes.
type textCapturer interface {
	capturingText() bool
}

// RootModel is a TUI router:
// 1) keeps active page
// 2) handles global Ctrl+C quit
// 3) handles NavigateTo messages
// 4) delegates all other messages to the active page
//
// Ticks and engine results are delivered to every page so the main page
// keeps polling while the login form is open.
type RootModel struct {
	pages       map[string]tea.Model
	currentName string

	quitByUser bool
	buildInfo  models.AppBuildInfo

	showBuildInfo bool
}

// NewRootModel registers all pages and opens startPage.
func NewRootModel(pages map[string]tea.Model, startPage string, buildInfo models.AppBuildInfo) RootModel {
	return RootModel{
		pages:       pages,
		currentName: startPage,
		buildInfo:   buildInfo,
	}
}

func (r RootModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.pages))
	for _, page := range r.pages {
		cmds = append(cmds, page.Init())
	}
	return tea.Batch(cmds...)
}

func (r RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			r.quitByUser = true
			return r, tea.Quit
		case "?":
			if !r.capturing() {
				r.showBuildInfo = !r.showBuildInfo
				return r, nil
			}
		case "esc":
			if r.showBuildInfo {
				r.showBuildInfo = false
				return r, nil
			}
		}

		if r.showBuildInfo {
			return r, nil
		}
		return r.updatePage(r.currentName, msg)
	}

	if nav, ok := msg.(NavigateTo); ok {
		if _, exists := r.pages[nav.Page]; !exists {
			return r, nil
		}
		r.showBuildInfo = false
		r.currentName = nav.Page
		return r, nil
	}

	switch msg.(type) {
	case tickMsg, actionDoneMsg, recoveryStartedMsg, sasReadyMsg, clearStatusMsg:
		return r.updatePage(pageMain, msg)
	case quitMsg:
		r.quitByUser = true
		return r, tea.Quit
	}

	return r.updatePage(r.currentName, msg)
}

func (r RootModel) updatePage(name string, msg tea.Msg) (tea.Model, tea.Cmd) {
	page, ok := r.pages[name]
	if !ok {
		return r, nil
	}
	updated, cmd := page.Update(msg)
	r.pages[name] = updated
	return r, cmd
}

func (r RootModel) View() string {
	if r.showBuildInfo {
		return renderBuildInfoWindow(r.buildInfo)
	}
	page, ok := r.pages[r.currentName]
	if !ok {
		return renderPage("MULTIMATRIX", "", "")
	}
	return page.View()
}

func (r RootModel) capturing() bool {
	c, ok := r.pages[r.currentName].(textCapturer)
	return ok && c.capturingText()
}
