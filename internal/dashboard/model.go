// Package dashboard provides the Bubble Tea sales dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/syncer"
)

const (
	tabOverview = iota
	tabProducts
	tabMonthly
	tabOrders
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	periodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Options configure the dashboard.
type Options struct {
	Period model.Period
	// Locale "my" shows Burmese period labels.
	Locale string
	// SyncInterval spaces auto-sync runs; zero disables the timer.
	SyncInterval time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	store  *store.Store
	syncer *syncer.Syncer
	opts   Options

	period   model.Period
	report   stats.Report
	loaded   bool
	settings model.Settings
	errMsg   string
	status   string
	syncing  bool

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	ordersTable table.Model

	width  int
	height int

	sourceMode  bool
	sourceInput textinput.Model
	sourceError string
}

type reportMsg struct {
	report stats.Report
	err    error
}

type syncMsg struct {
	result syncer.Result
	err    error
}

type settingsMsg struct {
	settings model.Settings
	err      error
}

type tickMsg time.Time

// NewModel constructs a dashboard model.
func NewModel(st *store.Store, sy *syncer.Syncer, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if !opts.Period.Valid() {
		opts.Period = model.PeriodThisMonth
	}
	m := &Model{
		store:  st,
		syncer: sy,
		opts:   opts,
		period: opts.Period,
		tabs:   []string{"Overview", "Products", "Monthly", "Orders"},
	}
	m.sourceInput = newSourceInput()
	m.ordersTable = buildOrdersTable(nil, 0, 1)
	m.initViewports()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadReport(), m.loadSettings(), m.scheduleTick())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case reportMsg:
		return m.applyReport(msg)
	case syncMsg:
		return m.applySync(msg)
	case settingsMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.settings = msg.settings
		return m, nil
	case sourceSavedMsg:
		return m.applySourceSaved(msg)
	case tickMsg:
		cmds := []tea.Cmd{m.scheduleTick()}
		if m.settings.AutoSync && m.settings.SourceURL != "" && !m.syncing {
			m.opts.Logger.Debug("auto sync triggered")
			cmds = append(cmds, m.startSync())
		}
		return m, tea.Batch(cmds...)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.sourceMode {
			return m.updateSource(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeTab == tabOrders {
		m.ordersTable.Focus()
	} else {
		m.ordersTable.Blur()
	}
	key := msg.String()
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx < len(model.Periods) {
			m.setPeriod(model.Periods[idx])
		}
		return m, nil
	}
	switch key {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l", "tab":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "[":
		m.setPeriod(model.Periods[(m.period.Index()+len(model.Periods)-1)%len(model.Periods)])
		return m, nil
	case "]":
		m.setPeriod(model.Periods[(m.period.Index()+1)%len(model.Periods)])
		return m, nil
	case "r":
		if m.syncing {
			return m, nil
		}
		return m, m.startSync()
	case "s":
		return m.startSource()
	case "a":
		return m, m.toggleAutoSync()
	case "u":
		return m, m.toggleLock()
	case "g", "home":
		if m.activeTab == tabOrders {
			m.ordersTable.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabOrders {
			m.ordersTable.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	default:
		if m.activeTab == tabOrders {
			var cmd tea.Cmd
			m.ordersTable, cmd = m.ordersTable.Update(msg)
			return m, cmd
		}
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.sourceMode {
		return fitLines(m.renderSourceModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Period returns the selected reporting window.
func (m *Model) Period() model.Period {
	return m.period
}

// Report returns the report currently shown.
func (m *Model) Report() stats.Report {
	return m.report
}

func (m *Model) loadReport() tea.Cmd {
	st, now, p, logger := m.store, m.opts.Now(), m.period, m.opts.Logger
	return func() tea.Msg {
		rep, err := stats.BuildFromStore(context.Background(), st, now, p, logger)
		return reportMsg{report: rep, err: err}
	}
}

func (m *Model) loadSettings() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		settings, err := st.Settings(context.Background())
		return settingsMsg{settings: settings, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	if m.syncer == nil {
		m.errMsg = "sync is not configured"
		return nil
	}
	m.syncing = true
	m.status = "Syncing..."
	sy := m.syncer
	return func() tea.Msg {
		res, err := sy.Run(context.Background())
		return syncMsg{result: res, err: err}
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	if m.opts.SyncInterval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.SyncInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) applyReport(msg reportMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, store.ErrNoSnapshot) {
		// Nothing synced yet; fetch once like a first launch.
		if m.syncing {
			return m, nil
		}
		return m, m.startSync()
	}
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		m.renderTabContents()
		return m, nil
	}
	m.errMsg = ""
	m.report = msg.report
	m.loaded = true
	m.refreshOrdersTable()
	m.renderTabContents()
	return m, nil
}

func (m *Model) applySync(msg syncMsg) (tea.Model, tea.Cmd) {
	m.syncing = false
	if msg.err != nil {
		m.status = ""
		m.errMsg = "sync failed: " + msg.err.Error()
		return m, nil
	}
	m.errMsg = ""
	switch {
	case msg.result.FetchErr != nil:
		m.errMsg = "fetch failed, showing sample data: " + msg.result.FetchErr.Error()
		m.status = ""
	case msg.result.Sample:
		m.status = "Showing sample data. Press s to set a source."
	default:
		m.status = fmt.Sprintf("Synced %d rows at %s", msg.result.Snapshot.RowCount, msg.result.Snapshot.FetchedAt.Format("15:04"))
	}
	return m, tea.Batch(m.loadReport(), m.loadSettings())
}

func (m *Model) setPeriod(p model.Period) {
	if p == m.period {
		return
	}
	m.period = p
	if !m.loaded {
		return
	}
	// Re-aggregate the parsed orders instead of reloading the snapshot.
	next := stats.FromOrders(m.report.All, m.opts.Now(), p)
	next.Source = m.report.Source
	next.Warnings = m.report.Warnings
	m.report = next
	m.refreshOrdersTable()
	m.renderTabContents()
	for i := range m.viewports {
		m.viewports[i].GotoTop()
	}
}

func (m *Model) toggleAutoSync() tea.Cmd {
	st, enabled := m.store, !m.settings.AutoSync
	return func() tea.Msg {
		ctx := context.Background()
		if err := st.SetAutoSync(ctx, enabled); err != nil {
			return settingsMsg{err: err}
		}
		settings, err := st.Settings(ctx)
		return settingsMsg{settings: settings, err: err}
	}
}

func (m *Model) toggleLock() tea.Cmd {
	st, locked := m.store, !m.settings.Locked
	return func() tea.Msg {
		ctx := context.Background()
		if err := st.SetLocked(ctx, locked); err != nil {
			return settingsMsg{err: err}
		}
		settings, err := st.Settings(ctx)
		return settingsMsg{settings: settings, err: err}
	}
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func newSourceInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "URL: "
	input.Placeholder = "https://docs.google.com/spreadsheets/d/.../edit"
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.status != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.ordersTable.SetWidth(m.width)
	m.ordersTable.SetHeight(max(1, vpHeight-1))
	promptWidth := lipgloss.Width(m.sourceInput.Prompt)
	m.sourceInput.Width = max(10, modalInnerWidth(m.width)-promptWidth)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabOrders {
		m.ordersTable.Focus()
	} else {
		m.ordersTable.Blur()
	}
}
