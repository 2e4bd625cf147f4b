package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"

	"github.com/prosodify/prosodify/internal/voicecache"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 6 // header, state line, filter, blank, help
	nameWidth     = 28
	localeWidth   = 8
	genderWidth   = 8
)

type model struct {
	cfg   Config
	store *voicecache.Store

	width  int
	height int

	// Snapshot of the store, refreshed on every notification
	voices  []voicecache.Voice
	state   voicecache.State
	loadErr error
	info    voicecache.CacheInfo
	hasInfo bool

	// Filtered view: indexes into voices, best match first
	matches []int
	cursor  int
	offset  int

	// Chosen style per voice id, as an index into its styles
	styleIdx map[string]int

	filterInput textinput.Model
	filtering   bool

	spinner       spinner.Model
	statusMessage string

	selection Selection
	fatalErr  error
}

func newModel(cfg Config, store *voicecache.Store) model {
	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(fuchsia)
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	m := model{
		cfg:         cfg,
		store:       store,
		width:       defaultWidth,
		height:      defaultHeight,
		styleIdx:    make(map[string]int),
		filterInput: ti,
		spinner:     sp,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadCmd(m.store, false),
		cacheInfoCmd(m.store),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		cmds := []tea.Cmd{cacheInfoCmd(m.store)}
		if m.state == voicecache.StateLoading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case loadFinishedMsg:
		// The store already notified; refresh in case this program
		// subscribed after the load settled.
		m.refresh()
		return m, nil

	case cacheInfoMsg:
		m.info, m.hasInfo = msg.info, msg.ok
		return m, nil

	case copiedMsg:
		m.statusMessage = "Copied " + msg.text
		return m, waitForStatusMessageTimeout()

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		return m, nil

	case spinner.TickMsg:
		if m.state != voicecache.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.filtering = false
		m.filterInput.Reset()
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	case "enter", "tab":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "home", "g":
		m.move(-len(m.matches))
	case "end", "G":
		m.move(len(m.matches))

	case "/":
		m.filtering = true
		return m, m.filterInput.Focus()

	case "s":
		if v, ok := m.current(); ok {
			m.styleIdx[v.ID] = (m.styleIdx[v.ID] + 1) % len(m.store.VoiceStyles(v.ID))
		}

	case "r":
		if m.store.IsLoading() {
			return m, nil
		}
		m.statusMessage = "Refreshing voices" + ellipsis
		return m, tea.Batch(loadCmd(m.store, true), waitForStatusMessageTimeout())

	case "c":
		m.statusMessage = "Cache cleared"
		m.styleIdx = make(map[string]int)
		return m, tea.Batch(clearCmd(m.store), waitForStatusMessageTimeout())

	case "y":
		if v, ok := m.current(); ok {
			return m, copyCmd(v.ID)
		}

	case "enter":
		if v, ok := m.current(); ok {
			m.selection = Selection{Voice: v, Style: m.currentStyle(v), Chosen: true}
			return m, tea.Quit
		}
	}

	return m, nil
}

// refresh re-reads the store.
func (m *model) refresh() {
	all := m.store.Voices()
	voices := all[:0]
	for _, v := range all {
		if m.cfg.Locale == "" ||
			strings.HasPrefix(v.Locale, m.cfg.Locale) ||
			strings.HasPrefix(v.Language, m.cfg.Locale) {
			voices = append(voices, v)
		}
	}
	m.voices = voices
	m.state = m.store.State()
	m.loadErr = m.store.Err()
	m.applyFilter()
}

func (m *model) applyFilter() {
	pattern := strings.TrimSpace(m.filterInput.Value())
	m.matches = m.matches[:0]

	if pattern == "" {
		for i := range m.voices {
			m.matches = append(m.matches, i)
		}
	} else {
		targets := make([]string, len(m.voices))
		for i, v := range m.voices {
			targets[i] = v.Label() + " " + v.ID + " " + v.Locale + " " + v.Gender
		}
		for _, match := range fuzzy.Find(pattern, targets) {
			m.matches = append(m.matches, match.Index)
		}
	}

	m.move(0)
}

func (m *model) move(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.matches) {
		m.cursor = len(m.matches) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// scroll keeps the cursor inside the visible window.
func (m *model) scroll() {
	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m model) listHeight() int {
	return max(1, m.height-chromeHeight)
}

func (m model) current() (voicecache.Voice, bool) {
	if len(m.matches) == 0 {
		return voicecache.Voice{}, false
	}
	return m.voices[m.matches[m.cursor]], true
}

func (m model) currentStyle(v voicecache.Voice) string {
	styles := m.store.VoiceStyles(v.ID)
	return styles[m.styleIdx[v.ID]%len(styles)]
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorStyle("Error: "+m.fatalErr.Error()) + "\n"
	}

	width := m.width
	if m.cfg.MaxWidth > 0 && uint(width) > m.cfg.MaxWidth {
		width = int(m.cfg.MaxWidth)
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(truncate.StringWithTail(m.stateView(), uint(width), ellipsis))
	b.WriteString("\n")
	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
	}
	b.WriteString("\n")
	m.listView(&b, width)
	b.WriteString("\n")
	b.WriteString(m.footerView(width))
	return b.String()
}

func (m model) headerView() string {
	count := fmt.Sprintf("%d voices", len(m.voices))
	if len(m.matches) != len(m.voices) {
		count = fmt.Sprintf("%d of %d voices", len(m.matches), len(m.voices))
	}
	return logoStyle.Render("Prosodify") + " " + dimStyle(count)
}

func (m model) stateView() string {
	switch m.state {
	case voicecache.StateLoading:
		return m.spinner.View() + " Loading voices" + ellipsis

	case voicecache.StateLoaded:
		s := dimStyle(fmt.Sprintf("Loaded %d voices", len(m.voices)))
		if m.hasInfo {
			s += faintStyle(" • cached " + humanize.Time(m.info.CachedAt))
		}
		return s

	case voicecache.StateLoadedStale:
		s := staleStyle("Offline: showing saved voices")
		if m.hasInfo {
			s += staleStyle(" from " + humanize.Time(m.info.CachedAt))
		}
		if m.loadErr != nil {
			s += faintStyle(" • " + m.loadErr.Error())
		}
		return s

	case voicecache.StateFailed:
		msg := "Could not load voices"
		if m.loadErr != nil {
			msg += ": " + m.loadErr.Error()
		}
		return errorStyle(msg) + dimStyle(" • press r to retry")

	default:
		return dimStyle("No voices loaded • press r to load")
	}
}

func (m model) listView(b *strings.Builder, width int) {
	rows := m.listHeight()
	if len(m.matches) == 0 {
		if m.filterInput.Value() != "" {
			b.WriteString(dimStyle("  Nothing matches"))
		}
		b.WriteString(strings.Repeat("\n", rows))
		return
	}

	end := min(m.offset+rows, len(m.matches))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.rowView(m.voices[m.matches[i]], i == m.cursor, width))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("\n", rows-(end-m.offset)))
}

func (m model) rowView(v voicecache.Voice, selected bool, width int) string {
	name := runewidth.FillRight(runewidth.Truncate(v.Label(), nameWidth, ellipsis), nameWidth)
	locale := runewidth.FillRight(v.Locale, localeWidth)
	if v.Locale == "" {
		locale = runewidth.FillRight(v.Language, localeWidth)
	}
	gender := runewidth.FillRight(v.Gender, genderWidth)

	style := m.currentStyle(v)
	styles := m.store.VoiceStyles(v.ID)
	tag := style
	if len(styles) > 1 {
		tag = fmt.Sprintf("%s (%d/%d)", style, m.styleIdx[v.ID]%len(styles)+1, len(styles))
	}

	line := fmt.Sprintf("%s %s %s ", name, locale, gender)
	line = truncate.StringWithTail(line, uint(max(0, width-2)), ellipsis)
	if selected {
		return selectedStyle.Render("› "+line) + styleTagStyle(tag)
	}
	return "  " + line + dimStyle(tag)
}

func (m model) footerView(width int) string {
	if m.statusMessage != "" {
		return statusBarMessageStyle(" " + m.statusMessage + " ")
	}
	if m.filtering {
		return helpViewStyle("enter apply • esc clear • ↑/↓ move")
	}
	help := "↑/↓ move • / find • s style • r refresh • c clear cache • y copy id • enter choose • q quit"
	return statusBarNoteStyle(truncate.StringWithTail(help, uint(width), ellipsis))
}
