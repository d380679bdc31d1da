package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live terminal dashboard over the control plane's telemetry and jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(newDashboardModel())
		_, err := p.Run()
		return err
	},
}

var (
	dashTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	dashErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dashHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type dashboardTickMsg time.Time

type dashboardDataMsg struct {
	telemetry map[string]interface{}
	jobs      []interface{}
	current   map[string]interface{}
	err       error
}

type dashboardModel struct {
	client  *apiClient
	jobs    table.Model
	status  string
	lastErr error
	width   int
	height  int
}

func newDashboardModel() dashboardModel {
	cols := []table.Column{
		{Title: "Job", Width: 10},
		{Title: "Type", Width: 20},
		{Title: "Status", Width: 12},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(false), table.WithHeight(10))
	return dashboardModel{client: newAPIClient(), jobs: t, status: "connecting..."}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), dashboardTick())
}

func dashboardTick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return dashboardTickMsg(t) })
}

func (m dashboardModel) fetch() tea.Cmd {
	return func() tea.Msg {
		var telemetry, status map[string]interface{}
		var jobs []interface{}
		if err := m.client.get("/telemetry", &telemetry); err != nil {
			return dashboardDataMsg{err: err}
		}
		_ = m.client.get("/jobs/recent?limit=20", &jobs)
		_ = m.client.get("/status", &status)
		return dashboardDataMsg{telemetry: telemetry, jobs: jobs, current: status}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case dashboardTickMsg:
		return m, tea.Batch(m.fetch(), dashboardTick())
	case dashboardDataMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.status = summarizeCurrent(msg.current)
		m.jobs.SetRows(rowsFromJobs(msg.jobs))
	}
	return m, nil
}

func summarizeCurrent(status map[string]interface{}) string {
	current, ok := status["current"].(map[string]interface{})
	if !ok {
		return "idle"
	}
	if kind, ok := current["kind"].(string); ok {
		return "running: " + kind
	}
	return "idle"
}

func rowsFromJobs(jobs []interface{}) []table.Row {
	var rows []table.Row
	for _, item := range jobs {
		job, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%v", job["ID"]),
			fmt.Sprintf("%v", job["Type"]),
			fmt.Sprintf("%v", job["Status"]),
		})
	}
	return rows
}

func (m dashboardModel) View() string {
	var b []byte
	b = append(b, dashTitleStyle.Render("excavator dashboard")...)
	b = append(b, '\n')
	b = append(b, []byte(fmt.Sprintf("status: %s\n\n", m.status))...)
	if m.lastErr != nil {
		b = append(b, []byte(dashErrStyle.Render("error: "+m.lastErr.Error()))...)
		b = append(b, '\n')
	}
	b = append(b, []byte(m.jobs.View())...)
	b = append(b, []byte(dashHintStyle.Render("\nq to quit"))...)
	return string(b)
}
