package display

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func sized(t *testing.T, m tuiModel) tuiModel {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(tuiModel)
}

func TestModelRendersUpdates(t *testing.T) {
	m := sized(t, newTUIModel(make(chan Update, 1), "en", "de"))

	next, _ := m.Update(Update{Seq: 1, Transcript: "hello world", Translation: "hallo Welt"})
	m = next.(tuiModel)

	view := m.View()
	if !strings.Contains(view, "hello world") {
		t.Errorf("transcript missing from view:\n%s", view)
	}
	if !strings.Contains(view, "hallo Welt") {
		t.Errorf("translation missing from view:\n%s", view)
	}
	if !strings.Contains(view, "en → de") {
		t.Errorf("language header missing from view:\n%s", view)
	}
}

func TestModelMarksDegradedAndSkipped(t *testing.T) {
	m := sized(t, newTUIModel(make(chan Update, 1), "en", "de"))

	next, _ := m.Update(Update{Seq: 2, Degraded: true, Skipped: []uint64{1}})
	m = next.(tuiModel)

	view := m.View()
	if !strings.Contains(view, "transcription unavailable") {
		t.Errorf("degraded marker missing:\n%s", view)
	}
	if !strings.Contains(view, "skipped") {
		t.Errorf("skipped marker missing:\n%s", view)
	}
}

func TestModelQuitsOnKey(t *testing.T) {
	m := newTUIModel(make(chan Update, 1), "en", "de")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("got %T, want tea.QuitMsg", msg)
	}
}

func TestShowNeverBlocksWhenBufferFull(t *testing.T) {
	tui := NewTUI()
	for i := range 200 { // far beyond the channel buffer
		tui.Show(Update{Seq: uint64(i + 1)})
	}
	// The freshest update must survive the overflow policy.
	var last Update
	for {
		select {
		case u := <-tui.updates:
			last = u
			continue
		default:
		}
		break
	}
	if last.Seq != 200 {
		t.Errorf("newest update lost: got seq %d, want 200", last.Seq)
	}
}
