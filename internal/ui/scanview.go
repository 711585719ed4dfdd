package ui

import (
	"fmt"
	"strings"
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/realdedupe/dedupe/internal/progress"
	"github.com/realdedupe/dedupe/internal/ui/styles"
)

// scanDoneMsg signals that the scan goroutine finished and the updates
// channel has closed.
type scanDoneMsg struct{}

// scanUpdateMsg carries one progress update off the reporter channel.
type scanUpdateMsg struct {
	update interface{}
}

// ScanViewModel renders live scan and hashing progress while the engine
// runs in a background goroutine. It quits on its own once the reporter
// closes its channel.
type ScanViewModel struct {
	updates   <-chan interface{}
	spinner   spinner.Model
	progress  bubblesprogress.Model
	latest    *progress.ScanProgress
	startTime time.Time
	done      bool
}

// NewScanViewModel creates a scan view fed by a reporter subscription.
func NewScanViewModel(updates <-chan interface{}) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	p := bubblesprogress.New(bubblesprogress.WithDefaultGradient())

	return &ScanViewModel{
		updates:   updates,
		spinner:   s,
		progress:  p,
		startTime: time.Now(),
	}
}

// Init initializes the scan view
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate)
}

// waitForUpdate blocks on the reporter channel for the next update.
func (m *ScanViewModel) waitForUpdate() tea.Msg {
	update, ok := <-m.updates
	if !ok {
		return scanDoneMsg{}
	}
	return scanUpdateMsg{update: update}
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanUpdateMsg:
		if sp, ok := msg.update.(*progress.ScanProgress); ok {
			m.latest = sp
		}
		return m, m.waitForUpdate

	case scanDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Scanning for Duplicates"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	elapsed := time.Since(m.startTime).Round(time.Second)

	if m.latest == nil {
		b.WriteString(" Starting scan... ")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", elapsed)))
		b.WriteString("\n")
		return b.String()
	}

	switch m.latest.Phase {
	case progress.PhaseHashing:
		b.WriteString(" Hashing candidates... ")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", elapsed)))
		b.WriteString("\n\n")
		if m.latest.TotalToHash > 0 {
			percent := float64(m.latest.HashedFiles) / float64(m.latest.TotalToHash)
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString("\n\n")
			b.WriteString(fmt.Sprintf("Progress: %d/%d files", m.latest.HashedFiles, m.latest.TotalToHash))
		}
	default:
		b.WriteString(" Walking folder... ")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", elapsed)))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Files found: %d\n", m.latest.FilesFound))
		if m.latest.CurrentPath != "" {
			path := m.latest.CurrentPath
			if len(path) > 70 {
				path = "..." + path[len(path)-67:]
			}
			b.WriteString(styles.DimStyle.Render(path))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// RunScanView displays live progress until the updates channel closes.
func RunScanView(updates <-chan interface{}) error {
	m := NewScanViewModel(updates)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running progress view: %w", err)
	}
	return nil
}
