// Package ui provides the interactive terminal screens: a keep picker for
// reviewing duplicate groups before deletion.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/realdedupe/dedupe/internal/grouper"
	"github.com/realdedupe/dedupe/internal/ui/styles"
	"github.com/realdedupe/dedupe/pkg/utils"
)

// KeepSelection is the outcome of an interactive review session.
type KeepSelection struct {
	// Keep maps each group index to the index of the member to keep.
	Keep map[int]int
	// Confirmed is false when the user cancelled instead of confirming.
	Confirmed bool
}

// KeepPickerModel lets the user walk through duplicate groups and choose
// which member of each group survives. Every other member will be deleted.
type KeepPickerModel struct {
	groups    []grouper.Group
	group     int // current group index
	member    int // cursor within the current group
	keep      map[int]int
	confirmed bool
	done      bool
	width     int
	height    int
}

// NewKeepPickerModel creates a picker with the newest member of each group
// preselected as the keeper.
func NewKeepPickerModel(groups []grouper.Group) *KeepPickerModel {
	keep := make(map[int]int, len(groups))
	for i := range groups {
		keep[i] = 0
	}
	return &KeepPickerModel{
		groups: groups,
		keep:   keep,
		width:  80,
		height: 24,
	}
}

// Selection returns the final keep decisions.
func (m *KeepPickerModel) Selection() KeepSelection {
	return KeepSelection{Keep: m.keep, Confirmed: m.confirmed}
}

// Init initializes the picker
func (m *KeepPickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *KeepPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.member > 0 {
				m.member--
			}
		case "down", "j":
			if m.member < len(m.groups[m.group].Files)-1 {
				m.member++
			}
		case "left", "h", "p":
			if m.group > 0 {
				m.group--
				m.member = 0
			}
		case "right", "l", "n", "tab":
			if m.group < len(m.groups)-1 {
				m.group++
				m.member = 0
			}
		case "enter", " ":
			m.keep[m.group] = m.member
		case "y":
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.confirmed = false
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the picker
func (m *KeepPickerModel) View() string {
	if m.done || len(m.groups) == 0 {
		return ""
	}

	var b strings.Builder

	group := m.groups[m.group]
	b.WriteString(styles.TitleStyle.Render("Review Duplicate Groups"))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(
		fmt.Sprintf("Group %d of %d: %s", m.group+1, len(m.groups), group.Description)))
	b.WriteString("\n\n")

	for i, file := range group.Files {
		cursor := "  "
		if i == m.member {
			cursor = styles.SelectedStyle.Render("> ")
		}

		marker := styles.DimStyle.Render("[delete]")
		if m.keep[m.group] == i {
			marker = styles.KeepStyle.Render("[keep]  ")
		}

		line := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			marker,
			styles.FilePathStyle.Render(file.Path),
			styles.FileSizeStyle.Render(utils.HumanSize(file.Size)),
			styles.DimStyle.Render(utils.FormatTimestamp(file.ModTime)))
		b.WriteString(line)
		b.WriteString("\n")
	}

	deletable := 0
	for _, g := range m.groups {
		deletable += len(g.Files) - 1
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render(
		fmt.Sprintf("%d file(s) will be deleted across %d group(s)", deletable, len(m.groups))))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render(
		"↑/↓ select member · ←/→ switch group · enter mark keep · y confirm · q cancel"))
	b.WriteString("\n")

	return b.String()
}

// RunKeepPicker runs the interactive review and returns the decisions.
func RunKeepPicker(groups []grouper.Group) (KeepSelection, error) {
	m := NewKeepPickerModel(groups)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return KeepSelection{}, fmt.Errorf("error running review: %w", err)
	}
	if picker, ok := final.(*KeepPickerModel); ok {
		return picker.Selection(), nil
	}
	return m.Selection(), nil
}
