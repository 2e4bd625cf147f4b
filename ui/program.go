// Package ui provides the interactive voice picker.
package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/prosodify/prosodify/internal/voicecache"
)

const statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"

// Selection is what the user picked.
type Selection struct {
	Voice  voicecache.Voice
	Style  string
	Chosen bool // false when the picker was quit without choosing
}

// Program is a running picker bound to a store.
type Program struct {
	tea   *tea.Program
	store *voicecache.Store
}

// NewProgram returns a picker over store. The store's listeners feed the
// program; every notification makes the picker re-read the store.
func NewProgram(cfg Config, store *voicecache.Store) *Program {
	log.Debug("Starting picker", "alt_screen", cfg.AltScreen, "locale", cfg.Locale)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	return &Program{
		tea:   tea.NewProgram(newModel(cfg, store), opts...),
		store: store,
	}
}

// Run blocks until the user chooses a voice or quits.
func (p *Program) Run() (Selection, error) {
	unsubscribe := p.store.Subscribe(func() {
		p.tea.Send(storeChangedMsg{})
	})
	defer unsubscribe()

	final, err := p.tea.Run()
	if err != nil {
		return Selection{}, err
	}
	m, ok := final.(model)
	if !ok {
		return Selection{}, nil
	}
	return m.selection, m.fatalErr
}

type (
	storeChangedMsg struct{}
	loadFinishedMsg struct{ err error }
	cacheInfoMsg    struct {
		info voicecache.CacheInfo
		ok   bool
	}
	copiedMsg               struct{ text string }
	statusMessageTimeoutMsg struct{}
)

// Loads and clears run as commands: the store notifies synchronously and the
// listener forwards to the event loop, which must not be the caller.

func loadCmd(store *voicecache.Store, force bool) tea.Cmd {
	return func() tea.Msg {
		return loadFinishedMsg{err: store.LoadData(context.Background(), force)}
	}
}

func clearCmd(store *voicecache.Store) tea.Cmd {
	return func() tea.Msg {
		store.ClearCache(context.Background())
		return nil
	}
}

func cacheInfoCmd(store *voicecache.Store) tea.Cmd {
	return func() tea.Msg {
		info, ok := store.CacheInfo(context.Background())
		return cacheInfoMsg{info: info, ok: ok}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err != nil {
			// Fall back to OSC 52 for remote sessions
			termenv.DefaultOutput().Copy(text)
			log.Debug("Clipboard unavailable, used OSC 52", "err", err)
		}
		return copiedMsg{text: text}
	}
}

func waitForStatusMessageTimeout() tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{}
	})
}
