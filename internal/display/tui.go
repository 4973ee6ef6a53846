package display

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI is a full-screen terminal Sink. It renders transcripts and their
// translations side by side, newest at the bottom, and keeps scrollback in a
// viewport. Show hands updates to the render loop over a channel and never
// blocks the pipeline.
type TUI struct {
	updates chan Update
	program *tea.Program

	sourceLang string
	targetLang string
}

// TUIOption configures a TUI.
type TUIOption func(*TUI)

// WithLanguages sets the language labels shown in the column headers.
func WithLanguages(source, target string) TUIOption {
	return func(t *TUI) {
		t.sourceLang = source
		t.targetLang = target
	}
}

// NewTUI creates a terminal renderer. Run must be called before updates are
// drawn; Show is safe to call at any point.
func NewTUI(opts ...TUIOption) *TUI {
	t := &TUI{
		updates:    make(chan Update, 64),
		sourceLang: "source",
		targetLang: "target",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Show implements Sink. If the render loop has fallen behind and the buffer
// is full, the oldest buffered update is dropped in favour of the new one.
func (t *TUI) Show(u Update) {
	for {
		select {
		case t.updates <- u:
			return
		default:
		}
		select {
		case <-t.updates:
		default:
		}
	}
}

// Run drives the terminal UI until the context ends or the user quits.
// The returned error is nil on a user-initiated quit.
func (t *TUI) Run(ctx context.Context) error {
	m := newTUIModel(t.updates, t.sourceLang, t.targetLang)
	t.program = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())

	_, err := t.program.Run()
	if err != nil && ctx.Err() != nil {
		// Cancellation is the normal shutdown path, not a render failure.
		return nil
	}
	return err
}

// Quit asks the render loop to exit. Safe to call before Run.
func (t *TUI) Quit() {
	if t.program != nil {
		t.program.Quit()
	}
}

var _ Sink = (*TUI)(nil)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	seqStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	translatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87D7FF"))
	degradedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Italic(true)
	skippedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	columnStyle     = lipgloss.NewStyle().PaddingRight(2)
)

type tuiModel struct {
	viewport viewport.Model
	entries  []Update
	updates  chan Update
	ready    bool

	sourceLang string
	targetLang string
}

func newTUIModel(updates chan Update, sourceLang, targetLang string) tuiModel {
	return tuiModel{
		updates:    updates,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(updates chan Update) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.contentView())

	case Update:
		m.entries = append(m.entries, msg)
		if m.ready {
			m.viewport.SetContent(m.contentView())
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForUpdate(m.updates))
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m tuiModel) View() string {
	if !m.ready {
		return "\n  Listening..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m tuiModel) headerView() string {
	title := bannerStyle.Render(fmt.Sprintf("translive  %s → %s", m.sourceLang, m.targetLang))
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, line)
}

func (m tuiModel) footerView() string {
	info := bannerStyle.Render("q to quit")
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(info)))
	return lipgloss.JoinHorizontal(lipgloss.Center, line, info)
}

func (m tuiModel) contentView() string {
	var b strings.Builder
	for _, u := range m.entries {
		b.WriteString(renderEntry(u, m.viewport.Width))
		b.WriteString("\n")
	}
	return b.String()
}

// renderEntry draws one update as two columns, transcript left and
// translation right, prefixed with its sequence number.
func renderEntry(u Update, width int) string {
	var parts []string
	if len(u.Skipped) > 0 {
		parts = append(parts, skippedStyle.Render(fmt.Sprintf("… %d chunk(s) skipped to catch up", len(u.Skipped))))
	}

	left := transcriptStyle.Render(u.Transcript)
	if u.Degraded {
		left = degradedStyle.Render("(transcription unavailable)")
	}
	right := translatedStyle.Render(u.Translation)
	if u.TranslationUnavailable {
		right = degradedStyle.Render("(translation unavailable)")
	}

	colWidth := width/2 - 4
	if colWidth < 10 {
		colWidth = 10
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		seqStyle.Render(fmt.Sprintf("%3d ", u.Seq)),
		columnStyle.Width(colWidth).Render(left),
		columnStyle.Width(colWidth).Render(right),
	)
	parts = append(parts, row)
	return strings.Join(parts, "\n")
}
