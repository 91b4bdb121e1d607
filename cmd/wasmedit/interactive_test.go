package main

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasmedit/inspect"
	"github.com/wippyai/wasmedit/wasm"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedBrowser(t *testing.T) *browserModel {
	t.Helper()
	m, err := wasm.Decode(addModule())
	require.NoError(t, err)

	b := newBrowserModel("in.wasm", m)
	assert.Equal(t, "Loading module...", b.View())
	b.Update(b.Init()())
	b.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	require.Len(t, b.funcs, 2)
	return b
}

func TestBrowser_Navigation(t *testing.T) {
	b := loadedBrowser(t)
	assert.Contains(t, b.View(), "func[0]")
	assert.Contains(t, b.View(), `export "grow"`)

	b.Update(key("up"))
	assert.Equal(t, 0, b.selected)
	b.Update(key("j"))
	assert.Equal(t, 1, b.selected)
	b.Update(key("down"))
	assert.Equal(t, 1, b.selected)
	b.Update(key("k"))
	assert.Equal(t, 0, b.selected)
}

func TestBrowser_ShowBody(t *testing.T) {
	b := loadedBrowser(t)
	b.Update(key("down"))
	b.Update(key("enter"))
	require.Equal(t, stateShowBody, b.state)

	view := b.View()
	assert.Contains(t, view, "func[1]")
	assert.Contains(t, view, "memory.grow")

	b.Update(key("esc"))
	assert.Equal(t, stateSelectFunc, b.state)
	assert.Equal(t, 1, b.selected)
}

func TestBrowser_Quit(t *testing.T) {
	b := loadedBrowser(t)
	_, cmd := b.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderListing(t *testing.T) {
	m, err := wasm.Decode(addModule())
	require.NoError(t, err)
	lines, err := inspect.Listing(m, 0)
	require.NoError(t, err)
	require.NotEmpty(t, lines)

	out := renderListing(lines)
	assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), len(lines))
	for _, l := range lines {
		if l.Start >= 0 {
			assert.Contains(t, out, fmt.Sprintf("%06x", l.Start))
		}
	}
	assert.Contains(t, out, "local.get")
	assert.Contains(t, out, "i32.add")
}
