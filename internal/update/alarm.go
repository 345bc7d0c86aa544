package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/mrsleep/internal/platform"
	"github.com/sandeepkv93/mrsleep/internal/reconciler"
	"github.com/sandeepkv93/mrsleep/internal/views"
)

func (m Model) handleAlarmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		return m, cancelCmd(m.rec)
	case "p":
		state := m.rec.State()
		if state.Phase != reconciler.PhaseActive || state.PlatformID == "" {
			m.Status = StatusBar{Text: "no armed alarm to pause", IsError: true}
			return m, nil
		}
		if err := m.svc.Pause(context.Background(), state.PlatformID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Paused = true
		m.Status = StatusBar{Text: "alarm paused", IsError: false}
		return m, nil
	case "o":
		state := m.rec.State()
		if state.Phase != reconciler.PhaseActive || state.PlatformID == "" {
			m.Status = StatusBar{Text: "no armed alarm to resume", IsError: true}
			return m, nil
		}
		if err := m.svc.Resume(context.Background(), state.PlatformID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Paused = false
		m.Status = StatusBar{Text: "alarm resumed", IsError: false}
		return m, nil
	}
	return m, nil
}

func (m Model) onCountdownTick(msg CountdownTickMsg) (tea.Model, tea.Cmd) {
	cd := m.rec.UpdateCountdown(context.Background(), msg.At)
	m.Countdown = cd
	m.AlarmState = m.rec.State()

	if cd.Done {
		m.Ringing = nil
		m.Paused = false
		m.Status = StatusBar{Text: "alarm finished; back to planning", IsError: false}
		m.CurrentView = ViewPlan
		m.refreshWakeOptions()
		return m, nil
	}
	if m.AlarmState.Phase != reconciler.PhaseActive {
		return m, nil
	}
	return m, countdownTickCmd()
}

func (m Model) onAlarmRing(msg AlarmRingMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	m.Ringing = &ev
	m.CurrentView = ViewAlarm
	m.Status = StatusBar{Text: "alarm ringing", IsError: false}

	cmds := []tea.Cmd{markFiredCmd(m.rec, ev.RangAt)}
	if m.ring != nil {
		cmds = append(cmds, waitForRingCmd(m.ring))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) renderAlarmView() string {
	data := views.AlarmPanelData{
		Arming:     m.AlarmState.Phase == reconciler.PhaseArming,
		ArmingView: m.armSpinner.View(),
		Paused:     m.Paused,
	}
	if m.AlarmState.Phase == reconciler.PhaseActive || m.AlarmState.Phase == reconciler.PhaseArming {
		data.FireAt = m.AlarmState.FireAt.Format("15:04")
		data.ArmedAt = m.AlarmState.ArmedAt.Format("15:04")
		data.Cycles = m.AlarmState.Cycles
		data.Countdown = m.Countdown.Display
		data.ProgressView = m.countdownProgress.ViewAs(m.Countdown.Progress)
		data.ProgressPct = int(m.Countdown.Progress * 100)
		data.Fired = m.Countdown.Fired
	}
	if m.Ringing != nil {
		data.Ringing = true
		data.RangAt = m.Ringing.RangAt.Format("15:04:05")
	}
	return views.RenderAlarmPanel(data)
}

func countdownTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return CountdownTickMsg{At: t} })
}

func waitForRingCmd(ch <-chan platform.RingEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return AlarmRingMsg{Event: ev}
	}
}

func markFiredCmd(rec *reconciler.Reconciler, at time.Time) tea.Cmd {
	return func() tea.Msg {
		return FiredRecordedMsg{Err: rec.MarkFired(context.Background(), at)}
	}
}
