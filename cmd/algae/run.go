package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/algae/internal/log"
	"github.com/gwillem/algae/pkg/dashboard"
	"github.com/gwillem/algae/pkg/intake"
	"github.com/gwillem/algae/pkg/robot"
	"github.com/gwillem/algae/pkg/teleop"
)

type RunCommand struct {
	Hz        int    `long:"hz" description:"Control loop frequency (default from config)"`
	Sim       bool   `long:"sim" description:"Force simulation even if the config names hardware"`
	Dashboard string `long:"dashboard" description:"Serve the telemetry dashboard on this address, e.g. :8080"`
	LogFile   string `long:"log-file" default:"algae.log" description:"Where log lines go while the terminal view is up"`
}

const (
	headerHeight = 2 // title + blank line
	statusHeight = 3 // readings + keys + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

const (
	seriesPosition = "position"
	seriesSetpoint = "setpoint"
)

var seriesColors = map[string]string{
	seriesPosition: "46",  // green
	seriesSetpoint: "208", // orange
}

var modeKeys = map[string]intake.Mode{
	"i": intake.RunIntake,
	"r": intake.ReverseIntake,
	"h": intake.Hold,
	"s": intake.Stow,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

type runModel struct {
	ctrl     *teleop.Controller
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	state    teleop.State
	quitting bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-statusHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialRunModel(ctrl *teleop.Controller, table intake.SetpointTable) runModel {
	lo, hi := 0.0, 0.0
	for _, m := range intake.AllModes() {
		lo = min(lo, table[m].ArmPosition)
		hi = max(hi, table[m].ArmPosition)
	}
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(lo-2, hi+2),
	)
	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:  ctrl,
		chart: &chart,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			m.ctrl.Idle()
		case "z":
			m.ctrl.PressCalibration()
		default:
			if mode, ok := modeKeys[key]; ok {
				m.ctrl.RequestMode(mode)
			}
		}
		return m, nil

	case stateMsg:
		m.state = teleop.State(msg)
		m.chart.PushDataSet(seriesPosition, m.state.Reading.ArmPosition)
		m.chart.PushDataSet(seriesSetpoint, m.state.Setpoints.ArmPosition)
		m.chart.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Intake stowed.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Algae Intake"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.state.Simulated {
		sb.WriteString(statusStyle.Render("  [simulation]"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderStatus(m.state))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("i intake  r reverse  h hold  s stow  space idle  z zero  q quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderStatus(s teleop.State) string {
	line := fmt.Sprintf("%s (idle: %s)  arm %6.2f rot  roller %+.2f",
		modeStyle.Render(s.Mode.String()), s.IdleMode,
		s.Reading.ArmPosition, s.Reading.AppliedOutput)
	if s.Simulated {
		line += fmt.Sprintf("  angle %5.1f°  %5.1f A  %5.2f V", s.VisualAngle, s.CurrentDraw, s.Battery)
	}
	return line
}

func renderLegend() string {
	var items []string
	for _, name := range []string{seriesPosition, seriesSetpoint} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Sim {
		cfg.Simulate = true
	}
	if c.Hz > 0 {
		cfg.Hz = c.Hz
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.InitWriter(cfg.LogLevel, logFile)

	var telemetry intake.Telemetry
	var table *dashboard.Table
	if c.Dashboard != "" {
		table = dashboard.NewTable()
		telemetry = table
	}

	in, err := robot.Open(cfg, telemetry)
	if err != nil {
		return fmt.Errorf("open intake: %w", err)
	}
	defer in.Close()

	ctrl := teleop.NewController(in, cfg.Hz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("controller stopped", "error", err)
		}
	}()

	if table != nil {
		srv := dashboard.NewServer(table, ctrl)
		go func() {
			if err := srv.ListenAndServe(ctx, c.Dashboard); err != nil {
				log.Error("dashboard stopped", "error", err)
			}
		}()
	}

	p := tea.NewProgram(initialRunModel(ctrl, cfg.Setpoints.Table()), tea.WithAltScreen())
	_, err = p.Run()

	// Let the loop stow the intake before the backend is closed.
	cancel()
	<-done
	return err
}
