// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

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

	"github.com/Thermoquad/breeze/internal/config"
	"github.com/Thermoquad/breeze/internal/server"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/panasonic"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// remoteField is one row of the virtual remote
type remoteField int

const (
	rowPower remoteField = iota
	rowMode
	rowTemperature
	rowStrength
	rowDirection
	rowPowerful
	rowCount
)

var remoteFieldLabels = [rowCount]string{"Power", "Mode", "Temperature", "Fan", "Direction", "Powerful"}

type remoteKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Send  key.Binding
	Power key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k remoteKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Power, k.Help, k.Quit}
}

func (k remoteKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Send, k.Power},
		{k.Help, k.Quit},
	}
}

var remoteKeys = remoteKeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Left:  key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/h", "decrease")),
	Right: key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/l", "increase")),
	Send:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "send")),
	Power: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "power")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// remoteLogEntry is one line of the event log
type remoteLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// remoteModel is the Bubble Tea model for the virtual remote
type remoteModel struct {
	ctx     context.Context
	emitter server.Emitter
	cfg     config.Config
	info    string

	settings panasonic.Settings
	lastSent *panasonic.Settings
	cursor   remoteField

	sending bool
	spinner spinner.Model
	help    help.Model

	log           []remoteLogEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type sendDoneMsg struct {
	settings panasonic.Settings
	report   blaster.Report
	err      error
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

func newRemoteModel(ctx context.Context, em server.Emitter, c config.Config, info string) remoteModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return remoteModel{
		ctx:           ctx,
		emitter:       em,
		cfg:           c,
		info:          info,
		settings:      c.Defaults,
		spinner:       sp,
		help:          help.New(),
		maxLogEntries: 50,
		width:         80,
		height:        24,
	}
}

func (m remoteModel) Init() tea.Cmd {
	return nil
}

func wrap(v, delta, n int) int {
	return ((v+delta)%n + n) % n
}

// stepSetting moves field f of s by delta, wrapping enums and clamping temperature
func stepSetting(s panasonic.Settings, f remoteField, delta int) panasonic.Settings {
	switch f {
	case rowPower:
		s.Power = panasonic.Power(wrap(int(s.Power), delta, 2))
	case rowMode:
		s.Mode = panasonic.Mode(wrap(int(s.Mode), delta, int(panasonic.ModeHeat)+1))
	case rowTemperature:
		s.Temperature = min(max(s.Temperature+delta, panasonic.MinTemperature), panasonic.MaxTemperature)
	case rowStrength:
		s.Strength = panasonic.FanStrength(wrap(int(s.Strength), delta, int(panasonic.FanQuiet)+1))
	case rowDirection:
		s.Direction = panasonic.FanDirection(wrap(int(s.Direction), delta, int(panasonic.Direction5)+1))
	case rowPowerful:
		s.Powerful = panasonic.Powerful(wrap(int(s.Powerful), delta, 2))
	}
	return s
}

func fieldValue(s panasonic.Settings, f remoteField) string {
	switch f {
	case rowPower:
		return s.Power.String()
	case rowMode:
		return s.Mode.String()
	case rowTemperature:
		return fmt.Sprintf("%d°C", s.Temperature)
	case rowStrength:
		return s.Strength.String()
	case rowDirection:
		return s.Direction.String()
	case rowPowerful:
		return s.Powerful.String()
	}
	return ""
}

// send transmits set in the background
func (m remoteModel) send(set panasonic.Settings) tea.Cmd {
	ctx, em, c := m.ctx, m.emitter, m.cfg
	return func() tea.Msg {
		frame, err := panasonic.Build(set)
		if err != nil {
			return sendDoneMsg{settings: set, err: err}
		}
		seq, err := panasonic.EncodePulses(frame, c.UnitTime())
		if err != nil {
			return sendDoneMsg{settings: set, err: err}
		}
		plan, err := blaster.NewPlan(seq, c.Repeat, c.Gap())
		if err != nil {
			return sendDoneMsg{settings: set, err: err}
		}
		report, err := em.Emit(ctx, plan)
		return sendDoneMsg{settings: set, report: report, err: err}
	}
}

func (m remoteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, remoteKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, remoteKeys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.sending {
			return m, nil
		}
		switch {
		case key.Matches(msg, remoteKeys.Up):
			m.cursor = remoteField(wrap(int(m.cursor), -1, int(rowCount)))
		case key.Matches(msg, remoteKeys.Down):
			m.cursor = remoteField(wrap(int(m.cursor), 1, int(rowCount)))
		case key.Matches(msg, remoteKeys.Left):
			m.settings = stepSetting(m.settings, m.cursor, -1)
		case key.Matches(msg, remoteKeys.Right):
			m.settings = stepSetting(m.settings, m.cursor, 1)
		case key.Matches(msg, remoteKeys.Power):
			m.settings = stepSetting(m.settings, rowPower, 1)
			return m.startSend()
		case key.Matches(msg, remoteKeys.Send):
			return m.startSend()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("send failed: %v", msg.err), true)
			return m, nil
		}
		set := msg.settings
		m.lastSent = &set
		m.addLogEntry(fmt.Sprintf("sent %s (%s)", set, msg.report), false)
	}

	return m, nil
}

func (m remoteModel) startSend() (tea.Model, tea.Cmd) {
	m.sending = true
	return m, tea.Batch(m.spinner.Tick, m.send(m.settings))
}

func (m *remoteModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, remoteLogEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	remoteTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	remoteHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	remoteLabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	remoteValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	remoteSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true)
	remoteErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	remoteWarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	remoteBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m remoteModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(remoteTitleStyle.Render("BREEZE - PANASONIC REMOTE"))
	s.WriteString("\n")
	s.WriteString(remoteHeaderStyle.Render(fmt.Sprintf("Emitter: %s | T=%v repeat=%d", m.info, m.cfg.UnitTime(), m.cfg.Repeat)))
	s.WriteString("\n\n")

	var panel strings.Builder
	for f := remoteField(0); f < rowCount; f++ {
		label := remoteLabelStyle.Render(fmt.Sprintf("%-12s", remoteFieldLabels[f]))
		value := fmt.Sprintf(" ‹ %-6s › ", fieldValue(m.settings, f))
		if f == m.cursor {
			value = remoteSelectedStyle.Render(value)
		} else {
			value = remoteValueStyle.Render(value)
		}
		changed := ""
		if m.lastSent != nil && fieldValue(*m.lastSent, f) != fieldValue(m.settings, f) {
			changed = remoteWarningStyle.Render(" *")
		}
		panel.WriteString(label + value + changed + "\n")
	}

	frame, err := panasonic.Build(m.settings)
	if err != nil {
		panel.WriteString(remoteErrorStyle.Render(err.Error()))
	} else {
		panel.WriteString(remoteHeaderStyle.Render("Frame: " + frame.Spaced()))
	}
	s.WriteString(remoteBoxStyle.Render(panel.String()))
	s.WriteString("\n")

	switch {
	case m.sending:
		s.WriteString(m.spinner.View() + remoteWarningStyle.Render(" Transmitting..."))
	case m.lastSent == nil:
		s.WriteString(remoteHeaderStyle.Render("Nothing sent yet"))
	default:
		s.WriteString(remoteValueStyle.Render("✓ Last sent: " + m.lastSent.String()))
	}
	s.WriteString("\n\n")

	s.WriteString(remoteLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	logHeight := max(m.height-22, 3)
	var logContent strings.Builder
	if len(m.log) == 0 {
		logContent.WriteString(remoteHeaderStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.log[max(len(m.log)-logHeight, 0):] {
		ts := remoteHeaderStyle.Render(entry.timestamp.Format("15:04:05"))
		if entry.isError {
			logContent.WriteString(fmt.Sprintf("%s %s\n", ts, remoteErrorStyle.Render("✗ "+entry.message)))
		} else {
			logContent.WriteString(fmt.Sprintf("%s %s\n", ts, remoteWarningStyle.Render("ℹ "+entry.message)))
		}
	}
	s.WriteString(remoteBoxStyle.Width(max(m.width-4, 20)).Render(logContent.String()))
	s.WriteString("\n")
	s.WriteString(m.help.View(remoteKeys))

	return s.String()
}
