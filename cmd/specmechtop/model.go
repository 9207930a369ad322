package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
	"github.com/stlalpha/specmech/internal/mech/status"
)

const pollInterval = 2 * time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type snapshot struct {
	env        status.Environment
	vacuum     status.Vacuum
	motors     map[mech.Axis]int
	pneu       status.Pneumatics
	nitrogen   status.Nitrogen
	fetchedAt  time.Time
	err        error
}

type tickMsg time.Time

type snapshotMsg snapshot

type model struct {
	coord *coordinate.Coordinator
	snap  snapshot
	width int
	motorTable table.Model
}

func newModel(coord *coordinate.Coordinator) model {
	cols := []table.Column{
		{Title: "axis", Width: 6},
		{Title: "position (microns)", Width: 20},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(len(mech.Axes)))
	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).Foreground(lipgloss.Color("8"))
	st.Selected = st.Selected.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	t.SetStyles(st)

	return model{coord: coord, motorTable: t}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		snap := snapshot{fetchedAt: time.Now()}

		if raw, err := m.coord.GetStat(ctx, status.Environment); err == nil {
			snap.env = raw.(status.Environment)
		} else {
			snap.err = err
		}
		if raw, err := m.coord.GetStat(ctx, status.Vacuum); err == nil {
			snap.vacuum = raw.(status.Vacuum)
		} else if snap.err == nil {
			snap.err = err
		}
		if raw, err := m.coord.GetStat(ctx, status.Motors); err == nil {
			snap.motors = raw.(map[mech.Axis]int)
		} else if snap.err == nil {
			snap.err = err
		}
		if raw, err := m.coord.GetStat(ctx, status.Pneumatics); err == nil {
			snap.pneu = raw.(status.Pneumatics)
		} else if snap.err == nil {
			snap.err = err
		}
		if raw, err := m.coord.GetStat(ctx, status.Nitrogen); err == nil {
			snap.nitrogen = raw.(status.Nitrogen)
		} else if snap.err == nil {
			snap.err = err
		}

		return snapshotMsg(snap)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())
	case snapshotMsg:
		m.snap = snapshot(msg)
		rows := make([]table.Row, 0, len(mech.Axes))
		for _, axis := range mech.Axes {
			rows = append(rows, table.Row{string(axis), fmt.Sprintf("%d", m.snap.motors[axis])})
		}
		m.motorTable.SetRows(rows)
		return m, nil
	}

	var cmd tea.Cmd
	m.motorTable, cmd = m.motorTable.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("specmechtop  %s", m.snap.fetchedAt.Format("15:04:05"))))
	b.WriteString("\n\n")

	if m.snap.err != nil {
		b.WriteString(errStyle.Render("last poll error: "+m.snap.err.Error()) + "\n\n")
	}

	b.WriteString(labelStyle.Render("environment") + "\n")
	fmt.Fprintf(&b, "  temps  %.1f  %.1f  %.1f  (mech %.1f)\n", m.snap.env.T0, m.snap.env.T1, m.snap.env.T2, m.snap.env.TMech)
	fmt.Fprintf(&b, "  humid  %.1f  %.1f  %.1f\n\n", m.snap.env.H0, m.snap.env.H1, m.snap.env.H2)

	b.WriteString(labelStyle.Render("vacuum") + "\n")
	fmt.Fprintf(&b, "  red dewar   %.2f log10(Pa)\n", m.snap.vacuum.RedLog10Pa)
	fmt.Fprintf(&b, "  blue dewar  %.2f log10(Pa)\n\n", m.snap.vacuum.BlueLog10Pa)

	b.WriteString(labelStyle.Render("pneumatics") + "\n")
	fmt.Fprintf(&b, "  shutter        %s\n", pneuStyle(m.snap.pneu.Shutter))
	fmt.Fprintf(&b, "  hartmann left  %s\n", pneuStyle(m.snap.pneu.Left))
	fmt.Fprintf(&b, "  hartmann right %s\n\n", pneuStyle(m.snap.pneu.Right))

	b.WriteString(labelStyle.Render("collimator") + "\n")
	b.WriteString(m.motorTable.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("nitrogen") + "\n")
	fmt.Fprintf(&b, "  buffer supply  %s\n", m.snap.nitrogen.BufferDewarSupply)
	fmt.Fprintf(&b, "  buffer vent    %s\n", m.snap.nitrogen.BufferDewarVent)
	fmt.Fprintf(&b, "  red vent       %s\n", m.snap.nitrogen.RedDewarVent)
	fmt.Fprintf(&b, "  blue vent      %s\n", m.snap.nitrogen.BlueDewarVent)
	fmt.Fprintf(&b, "  pressure       %d mTorr\n\n", m.snap.nitrogen.PressureMilliTorr)

	b.WriteString(labelStyle.Render("[r] refresh  [q] quit"))
	return b.String()
}

func pneuStyle(s mech.PneumaticState) string {
	if s == mech.Transitioning {
		return warnStyle.Render(s.String())
	}
	return okStyle.Render(s.String())
}
