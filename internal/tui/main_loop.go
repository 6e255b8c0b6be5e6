package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	timelineLimit  = 200
	backfillLimit  = 50
	searchLimit    = 20
	roomPaneWidth  = 36
	statusLifetime = 5 * time.Second
)

type mainMode int

const (
	modeBrowse mainMode = iota
	modeCompose
	modeSearch
	modeRecovery
	modeSAS
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// MainModel is the unified inbox: room list, open room timeline and the
// status bar. It drains the engine every pollInterval.
type MainModel struct {
	ctx    context.Context
	engine Engine
	logger *logger.Logger

	mode     mainMode
	sortMode models.SortMode

	rooms    []models.UnifiedRoomEntry
	selected int

	open     *models.RoomRef
	timeline []models.TimelineEvent
	typing   []string

	compose  textinput.Model
	search   textinput.Model
	recovery textinput.Model

	matches       []models.SearchMatch
	matchSelected int
	recoveryID    string

	// incomingSAS is the last verification request another device sent.
	incomingSAS string
	sas         models.VerificationInfo

	status  string
	isError bool

	width  int
	height int
}

func NewMainModel(ctx context.Context, engine Engine, log *logger.Logger) *MainModel {
	compose := textinput.New()
	compose.Prompt = "> "
	compose.Placeholder = "message"
	compose.CharLimit = 4096

	search := textinput.New()
	search.Prompt = "/ "

	recovery := textinput.New()
	recovery.Prompt = "Recovery key: "
	recovery.EchoMode = textinput.EchoPassword
	recovery.EchoCharacter = '•'

	return &MainModel{
		ctx:      ctx,
		engine:   engine,
		logger:   log,
		sortMode: engine.SortMode(),
		compose:  compose,
		search:   search,
		recovery: recovery,
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *MainModel) Init() tea.Cmd {
	m.refresh()
	return tick()
}

func (m *MainModel) capturingText() bool {
	return m.mode != modeBrowse
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		cmd := m.drain()
		return m, tea.Batch(tick(), cmd)

	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.status != "" {
			m.setStatus(msg.status)
		}
		m.refresh()
		return m, clearStatusLater()

	case recoveryStartedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.recoveryID = msg.id
		m.mode = modeRecovery
		m.recovery.Reset()
		return m, m.recovery.Focus()

	case sasReadyMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if m.mode == modeRecovery {
			m.setStatus("Emoji verification waiting, finish the recovery key first")
			return m, nil
		}
		m.compose.Blur()
		if m.mode == modeSearch {
			m.leaveSearch()
		}
		m.sas = msg.info
		m.mode = modeSAS
		m.setStatus("Do the emojis match the other device?")
		return m, nil

	case clearStatusMsg:
		if !m.isError {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeCompose:
			return m.updateCompose(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeRecovery:
			return m.updateRecovery(msg)
		case modeSAS:
			return m.updateSAS(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

// drain consumes pending domain events and refreshes the snapshots they
// invalidate.
func (m *MainModel) drain() tea.Cmd {
	events := m.engine.PollEvents(pollBatch)
	if len(events) == 0 {
		return nil
	}

	var cmds []tea.Cmd
	for _, event := range events {
		switch event.Kind {
		case models.EventAccountStatusChanged:
			if event.Status == models.StatusLoggedOut {
				m.status = models.AccountLabel(event.AccountID) + " logged out, press 'a' to sign in again"
				m.isError = true
			}
		case models.EventSendFailed:
			m.setError(fmt.Errorf("message not sent: %w", event.Err))
		case models.EventVerificationRequested:
			m.incomingSAS = event.VerificationID
			m.setStatus("Verification requested on " + models.AccountLabel(event.AccountID) + ", press 'e' to answer")
		case models.EventVerificationStateChanged:
			if event.VerificationState.Terminal() {
				m.setStatus("Verification " + event.VerificationState.String())
				id := event.VerificationID
				if id == m.incomingSAS {
					m.incomingSAS = ""
				}
				if m.mode == modeSAS && id == m.sas.ID {
					m.leaveSAS()
				}
				cmds = append(cmds, func() tea.Msg {
					_ = m.engine.AcknowledgeVerification(id)
					return nil
				})
			}
		case models.EventMediaReady:
			if item, ok := m.engine.Media(event.MediaURI); ok {
				m.setStatus(fmt.Sprintf("%s ready (%d bytes)", mediaName(item.Ref), len(item.Data)))
			}
		case models.EventMediaFailed:
			m.setError(fmt.Errorf("download failed: %w", event.Err))
		case models.EventBackfillCompleted:
			if event.Err != nil && m.isOpen(event.Ref()) {
				m.setError(event.Err)
			}
		}
	}

	m.refresh()
	return tea.Batch(cmds...)
}

func (m *MainModel) refresh() {
	m.rooms = m.engine.GetUnifiedRooms(m.sortMode)
	if m.selected >= len(m.rooms) {
		m.selected = max(len(m.rooms)-1, 0)
	}

	if m.open == nil {
		return
	}
	timeline, err := m.engine.GetTimeline(*m.open, models.Window{Limit: timelineLimit})
	if err != nil {
		// the room left the index, e.g. its account was removed
		m.open = nil
		m.timeline = nil
		m.typing = nil
		return
	}
	m.timeline = timeline
	m.typing = m.engine.Typing(*m.open)
}

func (m *MainModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.quit):
		return m, func() tea.Msg { return quitMsg{} }
	case key.Matches(msg, keys.up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.down):
		if m.selected < len(m.rooms)-1 {
			m.selected++
		}
	case key.Matches(msg, keys.enter):
		if ref, ok := m.current(); ok {
			return m, m.openRoom(ref)
		}
	case key.Matches(msg, keys.tab):
		if m.open != nil {
			m.mode = modeCompose
			return m, m.compose.Focus()
		}
	case key.Matches(msg, keys.loadMore):
		if m.open != nil {
			ref := *m.open
			return m, m.run(func() (string, error) {
				return "", m.engine.LoadMore(m.ctx, ref, backfillLimit)
			})
		}
	case key.Matches(msg, keys.favorite):
		if ref, ok := m.current(); ok {
			return m, m.run(func() (string, error) {
				fav, err := m.engine.ToggleFavorite(m.ctx, ref)
				if fav {
					return "Added to favorites", err
				}
				return "Removed from favorites", err
			})
		}
	case key.Matches(msg, keys.moveUp):
		return m, m.reorder(models.Up)
	case key.Matches(msg, keys.moveDown):
		return m, m.reorder(models.Down)
	case key.Matches(msg, keys.sort):
		m.sortMode = m.sortMode.Next()
		mode := m.sortMode
		m.refresh()
		return m, m.run(func() (string, error) {
			return "Sort: " + mode.Label(), m.engine.SetSortMode(m.ctx, mode)
		})
	case key.Matches(msg, keys.search):
		m.mode = modeSearch
		m.search.Reset()
		m.matches = nil
		m.matchSelected = 0
		return m, m.search.Focus()
	case key.Matches(msg, keys.copy):
		if ref, ok := m.current(); ok {
			if err := copyToClipboard(ref.RoomID); err != nil {
				m.setError(fmt.Errorf("clipboard: %w", err))
				return m, nil
			}
			m.setStatus("Copied " + ref.RoomID)
			return m, clearStatusLater()
		}
	case key.Matches(msg, keys.recovery):
		accountID := m.currentAccount()
		if accountID == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			id, err := m.engine.StartRecovery(accountID)
			return recoveryStartedMsg{id: id, err: err}
		}
	case key.Matches(msg, keys.answer):
		if m.incomingSAS == "" {
			return m, nil
		}
		id := m.incomingSAS
		m.incomingSAS = ""
		m.setStatus("Starting emoji verification...")
		return m, func() tea.Msg {
			if err := m.engine.AcceptSAS(m.ctx, id); err != nil {
				return actionDoneMsg{err: err}
			}
			info, err := m.engine.Verification(id)
			return sasReadyMsg{info: info, err: err}
		}
	case key.Matches(msg, keys.download):
		return m, m.downloadLatest()
	case key.Matches(msg, keys.details):
		if ref, ok := m.current(); ok {
			details, err := m.engine.RoomDetails(ref)
			if err != nil {
				m.setError(err)
				return m, nil
			}
			m.setStatus(detailsLine(details))
		}
	case key.Matches(msg, keys.account):
		return m, func() tea.Msg { return NavigateTo{Page: pageLogin} }
	}
	return m, nil
}

// downloadLatest requests the newest attachment of the open room.
func (m *MainModel) downloadLatest() tea.Cmd {
	if m.open == nil {
		return nil
	}
	var ref *models.MediaRef
	for i := len(m.timeline) - 1; i >= 0; i-- {
		if m.timeline[i].Media != nil {
			ref = m.timeline[i].Media
			break
		}
	}
	if ref == nil {
		m.setStatus("No attachments in this room")
		return clearStatusLater()
	}

	status, err := m.engine.RequestMedia(*ref)
	if err != nil {
		m.setError(err)
		return nil
	}
	if status == models.MediaReady {
		if item, ok := m.engine.Media(ref.URI); ok {
			m.setStatus(fmt.Sprintf("%s ready (%d bytes)", mediaName(item.Ref), len(item.Data)))
			return clearStatusLater()
		}
	}
	m.setStatus(mediaName(*ref) + ": " + status.String())
	return nil
}

func detailsLine(d models.RoomDetails) string {
	parts := []string{d.Name, fmt.Sprintf("%d members", d.MemberCount), d.Encryption(), d.RoomID}
	if d.Topic != "" {
		parts = append(parts[:1], append([]string{d.Topic}, parts[1:]...)...)
	}
	return strings.Join(parts, " · ")
}

func mediaName(ref models.MediaRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.URI
}

func (m *MainModel) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.mode = modeBrowse
		m.compose.Blur()
		return m, nil
	case key.Matches(msg, keys.enter):
		body := strings.TrimSpace(m.compose.Value())
		if body == "" || m.open == nil {
			return m, nil
		}
		m.compose.Reset()
		ref := *m.open
		return m, m.run(func() (string, error) {
			return "", m.engine.SendMessage(m.ctx, ref, body)
		})
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m *MainModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.leaveSearch()
		return m, nil
	case msg.String() == "up":
		if m.matchSelected > 0 {
			m.matchSelected--
		}
		return m, nil
	case msg.String() == "down":
		if m.matchSelected < len(m.matches)-1 {
			m.matchSelected++
		}
		return m, nil
	case key.Matches(msg, keys.enter):
		if len(m.matches) == 0 {
			m.leaveSearch()
			return m, nil
		}
		ref := m.matches[m.matchSelected].Entry.Ref
		m.leaveSearch()
		m.selectRef(ref)
		return m, m.openRoom(ref)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.runSearch()
	return m, cmd
}

func (m *MainModel) runSearch() {
	m.matches = m.matches[:0]
	m.matchSelected = 0
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		return
	}
	for match := range m.engine.Search(query) {
		m.matches = append(m.matches, match)
		if len(m.matches) == searchLimit {
			break
		}
	}
}

func (m *MainModel) leaveSearch() {
	m.mode = modeBrowse
	m.search.Blur()
	m.search.Reset()
	m.matches = nil
}

func (m *MainModel) updateRecovery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		id := m.recoveryID
		m.leaveRecovery()
		return m, m.run(func() (string, error) {
			return "Verification cancelled", m.engine.CancelVerification(m.ctx, id)
		})
	case key.Matches(msg, keys.enter):
		secret := []byte(m.recovery.Value())
		id := m.recoveryID
		m.leaveRecovery()
		m.setStatus("Verifying...")
		return m, m.run(func() (string, error) {
			return "", m.engine.SubmitRecoveryKey(m.ctx, id, secret)
		})
	}

	var cmd tea.Cmd
	m.recovery, cmd = m.recovery.Update(msg)
	return m, cmd
}

func (m *MainModel) updateSAS(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.sas.ID
	switch {
	case key.Matches(msg, keys.confirm):
		m.leaveSAS()
		m.setStatus("Verifying...")
		return m, m.run(func() (string, error) {
			return "", m.engine.ConfirmSAS(m.ctx, id, true)
		})
	case key.Matches(msg, keys.deny):
		m.leaveSAS()
		return m, m.run(func() (string, error) {
			return "", m.engine.ConfirmSAS(m.ctx, id, false)
		})
	case key.Matches(msg, keys.esc):
		m.leaveSAS()
		return m, m.run(func() (string, error) {
			return "Verification cancelled", m.engine.CancelVerification(m.ctx, id)
		})
	}
	return m, nil
}

func (m *MainModel) leaveSAS() {
	m.mode = modeBrowse
	m.sas = models.VerificationInfo{}
}

func (m *MainModel) leaveRecovery() {
	m.mode = modeBrowse
	m.recovery.Blur()
	m.recovery.Reset()
	m.recoveryID = ""
}

func (m *MainModel) openRoom(ref models.RoomRef) tea.Cmd {
	m.open = &ref
	m.refresh()
	return m.run(func() (string, error) {
		return "", m.engine.MarkRead(m.ctx, ref)
	})
}

func (m *MainModel) reorder(dir models.Direction) tea.Cmd {
	ref, ok := m.current()
	if !ok {
		return nil
	}
	if err := m.engine.ReorderFavorite(m.ctx, ref, dir); err != nil {
		m.setError(err)
		return nil
	}
	m.refresh()
	m.selectRef(ref)
	return nil
}

// run executes fn off the UI goroutine and reports its outcome.
func (m *MainModel) run(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn()
		return actionDoneMsg{status: status, err: err}
	}
}

func (m *MainModel) current() (models.RoomRef, bool) {
	if m.selected < 0 || m.selected >= len(m.rooms) {
		return models.RoomRef{}, false
	}
	return m.rooms[m.selected].Ref, true
}

// currentAccount is the account of the selected room, or the first account
// when the list is empty.
func (m *MainModel) currentAccount() string {
	if ref, ok := m.current(); ok {
		return ref.AccountID
	}
	if accounts := m.engine.Accounts(); len(accounts) > 0 {
		return accounts[0].UserID
	}
	return ""
}

func (m *MainModel) selectRef(ref models.RoomRef) {
	for i, entry := range m.rooms {
		if entry.Ref == ref {
			m.selected = i
			return
		}
	}
}

func (m *MainModel) isOpen(ref models.RoomRef) bool {
	return m.open != nil && *m.open == ref
}

func (m *MainModel) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *MainModel) setError(err error) {
	m.status = humanizeError(err)
	m.isError = true
}

func clearStatusLater() tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// ── View ──

func (m *MainModel) View() string {
	header := titleStyle.Render("MULTIMATRIX") + "  " + labelStyle.Render("sort: "+m.sortMode.Label())

	left := m.renderRooms()
	right := m.renderTimeline()
	if m.mode == modeSearch {
		left = m.renderMatches()
	}

	timelineWidth := max(m.width-roomPaneWidth-6, 30)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(roomPaneWidth).Render(left),
		paneStyle.Width(timelineWidth).Render(right),
	)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.hotKeys()))
	return appStyle.Render(b.String())
}

func (m *MainModel) renderRooms() string {
	if len(m.rooms) == 0 {
		return labelStyle.Render("no rooms yet")
	}

	lines := make([]string, 0, len(m.rooms))
	for i, entry := range m.rooms {
		line := roomLine(entry, roomPaneWidth-2)
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case entry.Room.Unread > 0:
			line = unreadStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func roomLine(entry models.UnifiedRoomEntry, width int) string {
	marker := " "
	if entry.Favorite {
		marker = "★"
	}
	unread := ""
	if entry.Room.Unread > 0 {
		unread = fmt.Sprintf(" (%d)", entry.Room.Unread)
	}
	label := " · " + entry.AccountLabel
	name := fitText(entry.Room.DisplayName(), max(width-len(unread)-len(label)-2, 8))
	return marker + " " + name + unread + labelStyle.Render(label)
}

func (m *MainModel) renderMatches() string {
	if len(m.matches) == 0 {
		return labelStyle.Render("no matches")
	}
	lines := make([]string, 0, len(m.matches))
	for i, match := range m.matches {
		line := roomLine(match.Entry, roomPaneWidth-2)
		if i == m.matchSelected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *MainModel) renderTimeline() string {
	if m.open == nil {
		return labelStyle.Render("select a room and press enter")
	}

	var b strings.Builder
	for _, event := range m.timeline {
		b.WriteString(renderEvent(event))
		b.WriteString("\n")
	}
	if len(m.typing) > 0 {
		b.WriteString(labelStyle.Render(strings.Join(m.typing, ", ") + " typing..."))
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if visible := m.height - 8; visible > 0 && len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	return strings.Join(lines, "\n")
}

func renderEvent(e models.TimelineEvent) string {
	ts := e.Timestamp.Local().Format("15:04")
	sender := senderStyle.Render(e.Sender)

	if e.Kind == models.KindMembershipChange {
		return labelStyle.Render(fmt.Sprintf("%s %s %s", ts, e.Sender, e.Membership))
	}

	var body string
	switch e.Payload {
	case models.PayloadRedacted:
		body = labelStyle.Render("message deleted")
	case models.PayloadDecryptionPending:
		body = labelStyle.Render("unable to decrypt yet")
	default:
		body = e.Content.Body
		if e.Content.MsgType == "m.emote" {
			body = "* " + body
		}
		if e.Media != nil {
			body = "[" + e.Media.MimeType + "] " + body
		}
	}
	if e.Edited {
		body += labelStyle.Render(" (edited)")
	}

	line := fmt.Sprintf("%s %s: %s", ts, sender, body)
	if reactions := e.ReactionKeys(); len(reactions) > 0 {
		parts := make([]string, 0, len(reactions))
		for _, k := range reactions {
			parts = append(parts, fmt.Sprintf("%s %d", k, len(e.Reactions[k])))
		}
		line += "\n      " + labelStyle.Render(strings.Join(parts, "  "))
	}
	return line
}

func (m *MainModel) renderInput() string {
	switch m.mode {
	case modeCompose:
		return m.compose.View()
	case modeSearch:
		return m.search.View()
	case modeRecovery:
		return m.recovery.View()
	case modeSAS:
		return renderEmojis(m.sas.Emojis)
	default:
		return ""
	}
}

func renderEmojis(emojis []models.SASEmoji) string {
	parts := make([]string, 0, len(emojis))
	for _, e := range emojis {
		parts = append(parts, e.Symbol+" "+labelStyle.Render(e.Description))
	}
	return strings.Join(parts, "  ")
}

// renderStatusBar shows every account with its state plus the dispatcher
// drop counter.
func (m *MainModel) renderStatusBar() string {
	accounts := m.engine.Accounts()
	parts := make([]string, 0, len(accounts)+2)
	for _, account := range accounts {
		parts = append(parts, account.Label+": "+account.Status.String())
	}
	if len(parts) == 0 {
		parts = append(parts, "no accounts")
	}
	stats := m.engine.DroppedEvents()
	drops := fmt.Sprintf("dropped: %d", stats.Dropped)
	if stats.Lost > 0 {
		drops += errorStyle.Render(fmt.Sprintf(" (lost: %d)", stats.Lost))
	}
	parts = append(parts, drops)

	bar := statusBarStyle.Render(strings.Join(parts, " │ "))
	if m.status == "" {
		return bar
	}
	if m.isError {
		return bar + "\n" + errorStyle.Render(m.status)
	}
	return bar + "\n" + m.status
}

func (m *MainModel) hotKeys() string {
	switch m.mode {
	case modeCompose:
		return "enter: send • esc: back"
	case modeSearch:
		return "↑/↓: select • enter: open • esc: cancel"
	case modeRecovery:
		return "enter: verify • esc: cancel"
	case modeSAS:
		return "y: they match • n: they differ • esc: cancel"
	default:
		return "↑/↓: move • enter: open • tab: write • r: older • f: favorite • K/J: reorder • s: sort • /: search • y: copy id • i: details • d: download • v: verify • e: answer • a: add account • ?: about • q: quit"
	}
}
