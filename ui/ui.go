// Package ui is the interactive soundboard: a list of catalog assets that
// can be played, spoken and looped, with the global mute and voice style
// switches of the game's settings screen.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sahabat-saleh/suara/internal/assets"
	"github.com/sahabat-saleh/suara/internal/audio"
)

// refreshInterval is how often the status line polls the service.
const refreshInterval = 250 * time.Millisecond

// Config contains the soundboard's dependencies.
type Config struct {
	Service      *audio.Service
	Catalog      *assets.Catalog
	Language     string
	EffectVolume float64
	MusicVolume  float64
	ConfigFile   string
}

// ConfigReloadedMsg tells the soundboard that live settings changed outside
// of it.
type ConfigReloadedMsg struct{}

type tickMsg time.Time

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config) *tea.Program {
	return tea.NewProgram(newModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
}

type model struct {
	cfg     Config
	svc     *audio.Service
	entries []assets.Entry

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	cursor  int
	music   *audio.Music
	stats   audio.Stats
	message string
	started time.Time

	width, height int
}

func newModel(cfg Config) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(mintGreen)

	return model{
		cfg:     cfg,
		svc:     cfg.Service,
		entries: cfg.Catalog.Entries,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: sp,
		stats:   cfg.Service.Stats(),
		started: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.stats = m.svc.Stats()
		if m.music != nil && !m.music.Active() {
			m.music = nil
		}
		return m, tick()

	case ConfigReloadedMsg:
		m.stats = m.svc.Stats()
		m.message = "config reloaded"
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.svc.StopAll()
		m.svc.StopMusic()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Play):
		if e, ok := m.selected(); ok {
			if e.Kind == assets.KindMusic {
				m.toggleMusic(e)
			} else {
				m.svc.PlaySound(e.ID, m.cfg.EffectVolume)
				m.message = "playing " + e.ID
			}
		}
	case key.Matches(msg, m.keys.Speak):
		if e, ok := m.selected(); ok && e.Text != "" {
			m.svc.Speak(e.Text, m.cfg.Language)
			m.message = fmt.Sprintf("speaking %q", e.Text)
		}
	case key.Matches(msg, m.keys.Instruction):
		if e, ok := m.selected(); ok && e.Kind == assets.KindPhrase {
			m.svc.PlayInstruction(e.ID)
			m.message = "instruction " + e.ID
		}
	case key.Matches(msg, m.keys.Replay):
		if last := m.svc.LastInstruction(); last != "" {
			m.svc.ReplayInstruction()
			m.message = "replaying " + last
		} else {
			m.message = "no instruction yet"
		}
	case key.Matches(msg, m.keys.Music):
		e, ok := m.selected()
		if !ok || e.Kind != assets.KindMusic {
			e, ok = m.firstMusic()
		}
		if ok {
			m.toggleMusic(e)
		}
	case key.Matches(msg, m.keys.StopAll):
		m.svc.StopAll()
		m.message = "stopped"
	case key.Matches(msg, m.keys.Mute):
		m.svc.SetEnabled(!m.svc.Enabled())
		if !m.svc.Enabled() {
			m.music = nil
			m.message = "muted"
		} else {
			m.message = "unmuted"
		}
	case key.Matches(msg, m.keys.Style):
		m.svc.SetVoiceStyle(m.svc.VoiceStyle().Toggle())
		m.message = "voice: " + m.svc.VoiceStyle().String()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.stats = m.svc.Stats()
	return m, nil
}

func (m model) selected() (assets.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return assets.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m model) firstMusic() (assets.Entry, bool) {
	for _, e := range m.entries {
		if e.Kind == assets.KindMusic {
			return e, true
		}
	}
	return assets.Entry{}, false
}

// toggleMusic stops the current music, and starts e unless it was the one
// playing.
func (m *model) toggleMusic(e assets.Entry) {
	if m.music != nil {
		was := m.music.Source()
		m.music.Stop()
		m.music = nil
		if was == e.ID {
			m.message = "music stopped"
			return
		}
	}
	m.music = m.svc.PlayBackgroundMusic(e.ID, m.cfg.MusicVolume)
	if m.music == nil {
		m.message = "audio is muted"
		return
	}
	m.message = "music " + e.ID
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("suara"))
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n\n")

	rows := m.listHeight()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(m.entries) && i < start+rows; i++ {
		b.WriteString(m.renderEntry(i))
		b.WriteByte('\n')
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(m.message))
	}
	b.WriteString(helpViewStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m model) statusLine() string {
	parts := make([]string, 0, 6)
	if m.stats.Enabled {
		parts = append(parts, "on")
	} else {
		parts = append(parts, mutedStyle.Render("muted"))
	}
	parts = append(parts, "voice "+m.stats.Style.String())

	if m.stats.Narration != audio.StateIdle {
		parts = append(parts, m.spinner.View()+" "+m.stats.Narration.String())
	}
	if m.stats.Sessions > 0 {
		parts = append(parts, fmt.Sprintf("%d playing", m.stats.Sessions))
	}
	if m.music != nil {
		parts = append(parts, "♫ "+m.music.Source())
	}
	parts = append(parts, fmt.Sprintf("%d cached", m.stats.Decoded), "up "+humanize.RelTime(m.started, time.Now(), "", ""))
	return strings.Join(parts, " · ")
}

func (m model) renderEntry(i int) string {
	e := m.entries[i]
	cursor := "  "
	id := e.ID
	if i == m.cursor {
		cursor = selectedStyle.Render("> ")
		id = selectedStyle.Render(id)
	}
	line := cursor + kindStyle.Render(string(e.Kind)) + " " + id
	if e.Text != "" {
		line += "  " + textStyle.Render(e.Text)
	}
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}

// listHeight is the number of catalog rows that fit on screen.
func (m model) listHeight() int {
	const chrome = 8 // title, blank lines, message and help
	if m.height <= chrome {
		return len(m.entries)
	}
	return m.height - chrome
}
