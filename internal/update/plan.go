package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/mrsleep/internal/cycles"
	"github.com/sandeepkv93/mrsleep/internal/reconciler"
	"github.com/sandeepkv93/mrsleep/internal/views"
)

// adjustSteps mirrors the palette's accepted nudge values.
var adjustSteps = []int{0, 5, 10, 15}

func (m *Model) refreshWakeOptions() {
	now := m.now()
	m.Plan.Options = cycles.WakeOptions(now, m.maxCycles)
	m.Plan.BasedOn = now
	if m.Plan.Cursor >= len(m.Plan.Options) {
		m.Plan.Cursor = len(m.Plan.Options) - 1
	}
	if m.Plan.Cursor < 0 {
		m.Plan.Cursor = 0
	}
}

func (m Model) handlePlanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.Plan.Cursor < len(m.Plan.Options)-1 {
			m.Plan.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.Plan.Cursor > 0 {
			m.Plan.Cursor--
		}
		return m, nil
	case "+", "=":
		m.Plan.AdjustMinutes = stepAdjustment(m.Plan.AdjustMinutes, 1)
		return m, nil
	case "-":
		m.Plan.AdjustMinutes = stepAdjustment(m.Plan.AdjustMinutes, -1)
		return m, nil
	case "r":
		m.refreshWakeOptions()
		m.Status = StatusBar{Text: "wake options refreshed", IsError: false}
		return m, nil
	case "enter":
		return m.armSelectedOption()
	}
	return m, nil
}

func (m Model) armSelectedOption() (tea.Model, tea.Cmd) {
	if len(m.Plan.Options) == 0 {
		m.Status = StatusBar{Text: "no wake option selected", IsError: true}
		return m, nil
	}
	opt := m.Plan.Options[m.Plan.Cursor]
	fireAt := opt.FireAt.Add(time.Duration(m.Plan.AdjustMinutes) * time.Minute)

	if err := m.rec.Select(fireAt, opt.Cycles, m.Plan.AdjustMinutes); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.spinnerActive = true
	m.CurrentView = ViewAlarm
	m.AlarmState = m.rec.State()
	m.Status = StatusBar{Text: fmt.Sprintf("arming alarm for %s", fireAt.Format("15:04")), IsError: false}
	return m, tea.Batch(m.armSpinner.Tick, confirmCmd(m.rec, fireAt, opt.Cycles, m.Plan.AdjustMinutes))
}

func stepAdjustment(current, direction int) int {
	idx := 0
	for i, v := range adjustSteps {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + direction + len(adjustSteps)) % len(adjustSteps)
	return adjustSteps[idx]
}

func (m Model) renderPlanView() string {
	options := make([]views.WakeOptionData, 0, len(m.Plan.Options))
	for i, opt := range m.Plan.Options {
		data := views.WakeOptionData{
			Cycles:   opt.Cycles,
			FireAt:   opt.FireAt.Format("15:04"),
			Sleep:    formatSleep(opt.Sleep),
			Category: string(opt.Category),
		}
		if i == m.Plan.Cursor && m.Plan.AdjustMinutes > 0 {
			data.Adjusted = true
			data.AdjustedTo = opt.FireAt.Add(time.Duration(m.Plan.AdjustMinutes) * time.Minute).Format("15:04")
		}
		options = append(options, data)
	}
	return views.RenderPlanPanel(views.PlanPanelData{
		Now:           m.Plan.BasedOn.Format("15:04"),
		ListView:      m.optionList.View(),
		Options:       options,
		SelectedIndex: m.Plan.Cursor,
		AdjustMinutes: m.Plan.AdjustMinutes,
	})
}

func reconcileCmd(rec *reconciler.Reconciler) tea.Cmd {
	return func() tea.Msg {
		return ReconcileDoneMsg{Err: rec.ReconcileOnForeground(context.Background())}
	}
}

func confirmCmd(rec *reconciler.Reconciler, fireAt time.Time, cycleCount, adjustMinutes int) tea.Cmd {
	return func() tea.Msg {
		return ConfirmResultMsg{Err: rec.Confirm(context.Background(), fireAt, cycleCount, adjustMinutes)}
	}
}

func cancelCmd(rec *reconciler.Reconciler) tea.Cmd {
	return func() tea.Msg {
		return CancelResultMsg{Err: rec.Cancel(context.Background())}
	}
}
