package dashboard

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
)

type sourceSavedMsg struct {
	url string
	err error
}

func (m *Model) startSource() (tea.Model, tea.Cmd) {
	m.sourceMode = true
	m.sourceError = ""
	m.sourceInput.SetValue(m.settings.SourceURL)
	m.sourceInput.CursorEnd()
	if m.settings.Locked {
		m.sourceError = "Source is locked. Press u on the dashboard to unlock it."
	}
	return m, m.sourceInput.Focus()
}

func (m *Model) updateSource(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeSource()
		return m, nil
	case tea.KeyEnter:
		url := strings.TrimSpace(m.sourceInput.Value())
		if url == "" {
			m.sourceError = "Enter a sheet URL or a CSV path."
			return m, nil
		}
		return m, m.saveSource(url)
	}
	var cmd tea.Cmd
	m.sourceInput, cmd = m.sourceInput.Update(msg)
	return m, cmd
}

func (m *Model) saveSource(url string) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		return sourceSavedMsg{url: url, err: st.SetSourceURL(context.Background(), url)}
	}
}

func (m *Model) applySourceSaved(msg sourceSavedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, store.ErrLocked) {
		m.sourceError = "Source is locked. Press u on the dashboard to unlock it."
		return m, nil
	}
	if msg.err != nil {
		m.sourceError = msg.err.Error()
		return m, nil
	}
	m.closeSource()
	m.settings.SourceURL = msg.url
	m.opts.Logger.Info("source url updated")
	cmds := []tea.Cmd{m.loadSettings()}
	if !m.syncing {
		cmds = append(cmds, m.startSync())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) closeSource() {
	m.sourceMode = false
	m.sourceError = ""
	m.sourceInput.Blur()
}

func (m *Model) renderSourceModal() string {
	title := cardValueStyle.Render("Data Source")
	body := []string{
		title,
		m.sourceInput.View(),
		headerStyle.Render("Google Sheets link or local CSV file."),
		headerStyle.Render("Enter to save and sync / Esc to cancel"),
	}
	if m.sourceError != "" {
		body = append(body, errorStyle.Render(m.sourceError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
