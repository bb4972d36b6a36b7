package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
	"github.com/m3usift/m3usift/internal/wizard"
)

// RecordFunc is invoked after each successful generation so the caller
// can persist history.
type RecordFunc func(creds services.Credentials, includeVOD bool, filter selection.Filter, artifact *wizard.Artifact)

// Form field focus positions on the credentials page. The VOD toggle
// sits below the text inputs and is reached with tab/down.
const (
	fieldURL = iota
	fieldUsername
	fieldPassword
	fieldVOD
)

// Model represents the TUI application state. The wizard session owns
// the flow; the model owns presentation concerns around it.
type Model struct {
	ctx     context.Context
	session *wizard.Session

	outputDir    string
	playlistName string
	guideName    string
	record       RecordFunc

	inputs []textinput.Model
	focus  int

	tabs      []catalog.ContentType
	activeTab int
	lists     []list.Model

	spinner spinner.Model
	waiting string

	help   help.Model
	keys   keyMap
	err    error
	notice string
	width  int
	height int
}

// ModelOpts configures a new wizard TUI. Nil or empty fields fall back
// to defaults.
type ModelOpts struct {
	Session      *wizard.Session
	OutputDir    string // default "."
	PlaylistName string // default playlist.m3u
	GuideName    string // default guide.xml
	Record       RecordFunc
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Session == nil {
		opts.Session = wizard.NewSession(wizard.SessionOpts{})
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.PlaylistName == "" {
		opts.PlaylistName = services.PlaylistFilename
	}
	if opts.GuideName == "" {
		opts.GuideName = services.GuideFilename
	}

	url := textinput.New()
	url.Placeholder = "http://portal.example.com:8080"
	url.CharLimit = 256
	url.Width = 48
	url.Focus()

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 128
	username.Width = 48

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 48
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.warn

	return &Model{
		ctx:          ctx,
		session:      opts.Session,
		outputDir:    opts.OutputDir,
		playlistName: opts.PlaylistName,
		guideName:    opts.GuideName,
		record:       opts.Record,
		inputs:       []textinput.Model{url, username, password},
		spinner:      sp,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init starts the cursor blinking on the credentials form.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case spinner.TickMsg:
		if m.waiting == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.session.Step() {
		case wizard.StepCredentials:
			return m.handleCredentialsKeys(msg)
		case wizard.StepSelecting:
			return m.handleSelectionKeys(msg)
		case wizard.StepResult:
			return m.handleResultKeys(msg)
		}

	case categoriesMsg:
		m.waiting = ""
		applied, err := m.session.FinishCategories(msg.ticket, msg.records, msg.err)
		if !applied {
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = ""
		m.buildLists()
		return m, nil

	case playlistMsg:
		m.waiting = ""
		applied, err := m.session.FinishPlaylist(msg.ticket, msg.payload, msg.err)
		if !applied {
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = ""
		if m.record != nil {
			m.record(m.session.Credentials(), m.session.IncludeVOD(), m.session.Selection().Filter(), m.session.Artifact())
		}
		return m, nil

	case guideMsg:
		m.waiting = ""
		applied, err := m.session.FinishGuide(msg.ticket, msg.payload, msg.err)
		if !applied {
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Guide downloaded (%s)", shared.FormatBytes(m.session.Guide().Size()))
		return m, nil
	}

	return m.updateChildren(msg)
}

// View renders the page for the session's current step.
func (m *Model) View() string {
	switch m.session.Step() {
	case wizard.StepCredentials:
		return m.renderCredentials()
	case wizard.StepSelecting:
		return m.renderSelection()
	case wizard.StepResult:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCredentialsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case " ":
		if m.focus == fieldVOD {
			m.session.SetIncludeVOD(!m.session.IncludeVOD())
			return m, nil
		}
	case "enter":
		if m.focus == fieldPassword || m.focus == fieldVOD {
			return m, m.fetchCategories()
		}
		m.setFocus(m.focus + 1)
		return m, nil
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleSelectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list is filtering it owns every key, including esc.
	if l := m.activeList(); l != nil && l.FilterState() == list.Filtering {
		return m.updateActiveList(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if len(m.tabs) > 0 {
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
		}
		return m, nil
	case "shift+tab":
		if len(m.tabs) > 0 {
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
		}
		return m, nil
	case " ":
		m.toggleCurrent()
		return m, nil
	case "m":
		m.session.Selection().ToggleMode()
		return m, nil
	case "a":
		if len(m.tabs) > 0 {
			m.session.Selection().ToggleSection(m.tabs[m.activeTab])
			m.refreshLists()
		}
		return m, nil
	case "A":
		m.session.Selection().ToggleAll()
		m.refreshLists()
		return m, nil
	case "c":
		m.session.Selection().Clear()
		m.refreshLists()
		return m, nil
	case "esc":
		m.session.Back()
		m.resetStatus()
		return m, nil
	case "u":
		m.session.UseOtherCredentials()
		m.resetCredentialsForm(true)
		return m, nil
	case "enter":
		return m, m.generate()
	}

	return m.updateActiveList(msg)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		if err := m.saveArtifacts(); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, nil
	case "o":
		if err := m.openPlaylist(); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, nil
	case "g":
		return m, m.downloadGuide()
	case "esc":
		m.session.Back()
		m.resetStatus()
		return m, nil
	case "u":
		m.session.UseOtherCredentials()
		m.resetCredentialsForm(true)
		return m, nil
	case "r":
		m.session.StartOver()
		m.resetCredentialsForm(true)
		return m, nil
	}
	return m, nil
}

// updateChildren forwards non-key messages (blink ticks, mouse, filter
// animation) to whichever component is on screen.
func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.session.Step() {
	case wizard.StepCredentials:
		if m.focus < len(m.inputs) {
			var cmd tea.Cmd
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
			return m, cmd
		}
	case wizard.StepSelecting:
		return m.updateActiveList(msg)
	}
	return m, nil
}

func (m *Model) updateActiveList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.lists) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.lists[m.activeTab], cmd = m.lists[m.activeTab].Update(msg)
	return m, cmd
}

func (m *Model) activeList() *list.Model {
	if len(m.lists) == 0 {
		return nil
	}
	return &m.lists[m.activeTab]
}

func (m *Model) setFocus(target int) {
	if target < 0 {
		target = fieldVOD
	}
	if target > fieldVOD {
		target = fieldURL
	}

	m.focus = target
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) resetStatus() {
	m.err = nil
	m.notice = ""
}

func (m *Model) resetCredentialsForm(clear bool) {
	m.resetStatus()
	m.waiting = ""
	if clear {
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
	}
	m.setFocus(fieldURL)
}

// buildLists creates one list per non-empty content type section.
func (m *Model) buildLists() {
	m.tabs = nil
	m.lists = nil
	m.activeTab = 0

	store := m.session.Catalog()
	for _, t := range catalog.Types {
		section := store.Section(t)
		if len(section) == 0 {
			continue
		}

		l := list.New(m.sectionItems(t), list.NewDefaultDelegate(), m.width-4, m.height-10)
		l.Title = fmt.Sprintf("%s (%d)", t.Label(), len(section))
		l.SetShowStatusBar(false)
		l.SetShowHelp(false)
		m.tabs = append(m.tabs, t)
		m.lists = append(m.lists, l)
	}
}

func (m *Model) sectionItems(t catalog.ContentType) []list.Item {
	sel := m.session.Selection()
	section := m.session.Catalog().Section(t)

	items := make([]list.Item, len(section))
	for i, c := range section {
		items[i] = categoryItem{category: c, selected: sel.Selected(c.ID)}
	}
	return items
}

// refreshLists rebuilds every list's items from the current selection,
// keeping each cursor where it was.
func (m *Model) refreshLists() {
	for i, t := range m.tabs {
		idx := m.lists[i].Index()
		m.lists[i].SetItems(m.sectionItems(t))
		m.lists[i].Select(idx)
	}
}

func (m *Model) toggleCurrent() {
	l := m.activeList()
	if l == nil {
		return
	}

	item, ok := l.SelectedItem().(categoryItem)
	if !ok {
		return
	}

	if err := m.session.Selection().Toggle(item.category.ID); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.refreshLists()
}

func (m *Model) fetchCategories() tea.Cmd {
	creds := services.Credentials{
		URL:      m.inputs[fieldURL].Value(),
		Username: m.inputs[fieldUsername].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}

	ticket, call, err := m.session.BeginCategories(creds)
	if err != nil {
		m.err = err
		return nil
	}

	m.resetStatus()
	m.waiting = "Loading categories..."

	svc := m.session.Service()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		records, err := svc.Categories(m.ctx, call.Creds, call.IncludeVOD)
		return categoriesMsg{ticket: ticket, records: records, err: err}
	})
}

func (m *Model) generate() tea.Cmd {
	ticket, call, err := m.session.BeginPlaylist()
	if err != nil {
		m.err = err
		return nil
	}

	m.resetStatus()
	m.waiting = "Generating playlist..."

	svc := m.session.Service()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		payload, err := svc.Playlist(m.ctx, call.Creds, call.IncludeVOD, call.Filter)
		return playlistMsg{ticket: ticket, payload: payload, err: err}
	})
}

func (m *Model) downloadGuide() tea.Cmd {
	ticket, creds, err := m.session.BeginGuide()
	if err != nil {
		m.err = err
		return nil
	}

	m.resetStatus()
	m.waiting = "Downloading guide..."

	svc := m.session.Service()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		payload, err := svc.Guide(m.ctx, creds)
		return guideMsg{ticket: ticket, payload: payload, err: err}
	})
}

// saveArtifacts copies the playlist, and the guide when one was
// downloaded, into the configured output directory.
func (m *Model) saveArtifacts() error {
	path := filepath.Join(m.outputDir, m.playlistName)
	if err := m.session.SavePlaylist(path); err != nil {
		return err
	}
	notice := fmt.Sprintf("Saved playlist to %s", path)

	if m.session.Guide() != nil {
		guidePath := filepath.Join(m.outputDir, m.guideName)
		if err := m.session.SaveGuide(guidePath); err != nil {
			return err
		}
		notice += fmt.Sprintf(", guide to %s", guidePath)
	}

	m.notice = notice
	return nil
}

func (m *Model) openPlaylist() error {
	if err := m.saveArtifacts(); err != nil {
		return err
	}
	return shared.OpenPath(filepath.Join(m.outputDir, m.playlistName))
}

func (m *Model) renderCredentials() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Connect to your portal"))
	b.WriteString("\n")

	labels := []string{"Portal URL", "Username", "Password"}
	for i, input := range m.inputs {
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", labels[i], input.View()))
	}

	box := "[ ]"
	if m.session.IncludeVOD() {
		box = "[x]"
	}
	vodLine := fmt.Sprintf("%s Include VOD categories", box)
	if m.focus == fieldVOD {
		vodLine = styles.ok.Render("> " + vodLine)
	} else {
		vodLine = "  " + vodLine
	}
	b.WriteString(vodLine)
	b.WriteString("\n")

	b.WriteString(m.statusLine())

	helpKeys := []key.Binding{m.keys.submit, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))

	return b.String()
}

func (m *Model) renderSelection() string {
	if len(m.lists) == 0 {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No categories to show"), helpView)
	}

	tabs := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		label := fmt.Sprintf(" %s ", t.Label())
		if i == m.activeTab {
			tabs = append(tabs, styles.ok.Render(label))
		} else {
			tabs = append(tabs, styles.help.Render(label))
		}
	}
	tabBar := strings.Join(tabs, "·")

	sel := m.session.Selection()
	modeLine := fmt.Sprintf("Mode: exclude • selected categories are removed (%s)", sel.Summary())
	if sel.Mode() == selection.ModeInclude {
		modeLine = fmt.Sprintf("Mode: include • only selected categories are kept (%s)", sel.Summary())
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.tab, m.keys.mode, m.keys.submit, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s%s\n%s", tabBar, modeLine, m.lists[m.activeTab].View(), m.statusLine(), helpView)
}

func (m *Model) renderResult() string {
	artifact := m.session.Artifact()
	if artifact == nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No playlist available"), helpView)
	}

	title := styles.ok.Render("✓ Playlist ready")
	info := fmt.Sprintf(
		"\nFile: %s\nSize: %s\nTracks: %d\nGroups: %d\n",
		artifact.Name(),
		shared.FormatBytes(artifact.Size()),
		artifact.Tracks(),
		artifact.Groups(),
	)

	if g := m.session.Guide(); g != nil {
		info += fmt.Sprintf("Guide: %s (%s)\n", g.Name(), shared.FormatBytes(g.Size()))
	}

	helpKeys := []key.Binding{m.keys.save, m.keys.open, m.keys.guide, m.keys.back, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s%s\n%s", title, info, m.statusLine(), helpView)
}

// statusLine renders whichever of the spinner, the last error, or the
// last notice applies. Backend messages are shown in the backend's own
// words when it sent any.
func (m *Model) statusLine() string {
	switch {
	case m.waiting != "":
		return fmt.Sprintf("\n%s %s\n", m.spinner.View(), m.waiting)
	case m.err != nil:
		return "\n" + styles.err.Render("Error: "+services.ErrorMessage(m.err)) + "\n"
	case m.notice != "":
		return "\n" + styles.ok.Render(m.notice) + "\n"
	default:
		return "\n"
	}
}
