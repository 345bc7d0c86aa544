package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/mrsleep/internal/commands"
	"github.com/sandeepkv93/mrsleep/internal/cycles"
	"github.com/sandeepkv93/mrsleep/internal/reconciler"
	"github.com/sandeepkv93/mrsleep/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{reconcileCmd(m.rec)}
	if m.ring != nil {
		cmds = append(cmds, waitForRingCmd(m.ring))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.syncBubbleData()

	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Plan:
			m.CurrentView = ViewPlan
			m.refreshWakeOptions()
			return m, nil
		case m.Keys.Alarm:
			m.CurrentView = ViewAlarm
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		if m.CurrentView == ViewPlan {
			return m.handlePlanKey(typed)
		}
		return m.handleAlarmKey(typed)

	case tea.FocusMsg:
		// Returning to the foreground is the one moment local and platform
		// state are allowed to disagree; resolve it before showing anything.
		return m, reconcileCmd(m.rec)

	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.armSpinner, cmd = m.armSpinner.Update(typed)
			return m, cmd
		}
		return m, nil

	case SwitchViewMsg:
		if typed.View == ViewPlan || typed.View == ViewAlarm {
			m.CurrentView = typed.View
		}
		return m, nil

	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil

	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil

	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil

	case ReconcileDoneMsg:
		return m.onReconcileDone(typed)

	case ConfirmResultMsg:
		return m.onConfirmResult(typed)

	case CancelResultMsg:
		return m.onCancelResult(typed)

	case CountdownTickMsg:
		return m.onCountdownTick(typed)

	case AlarmRingMsg:
		return m.onAlarmRing(typed)

	case FiredRecordedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	m.syncBubbleData()

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewPlan:
		leftPane = m.renderPlanView()
		rightPane = strings.TrimSpace(strings.Join([]string{
			m.renderCommandPalette(),
			m.guideViewport.View(),
			m.renderHelpIfVisible(),
		}, "\n"))
	case ViewAlarm:
		leftPane = m.renderAlarmView()
		rightPane = strings.TrimSpace(strings.Join([]string{
			m.renderCommandPalette(),
			m.renderHelpIfVisible(),
		}, "\n"))
	}

	notification := ""
	if m.Ringing != nil {
		notification = views.RenderNotification("ring", fmt.Sprintf("alarm fired at %s", m.Ringing.RangAt.Format("15:04:05")))
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("mrsleep | view: %s | alarm: %s", m.CurrentView, m.AlarmState.Phase),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: strings.TrimSpace(notification),
		Footer:       fmt.Sprintf("keys: %s plan | %s alarm | / command | %s help | %s quit", m.Keys.Plan, m.Keys.Alarm, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) onReconcileDone(msg ReconcileDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
	}
	m.AlarmState = m.rec.State()
	if m.AlarmState.Phase == reconciler.PhaseActive {
		m.CurrentView = ViewAlarm
		return m, countdownTickCmd()
	}
	m.Countdown = reconciler.Countdown{}
	return m, nil
}

func (m Model) onConfirmResult(msg ConfirmResultMsg) (tea.Model, tea.Cmd) {
	m.spinnerActive = false
	m.AlarmState = m.rec.State()
	if msg.Err != nil {
		m.LastError = msg.Err
		m.CurrentView = ViewPlan
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return m, nil
	}
	m.CurrentView = ViewAlarm
	m.Status = StatusBar{
		Text:    fmt.Sprintf("alarm armed for %s", m.AlarmState.FireAt.Format("15:04")),
		IsError: false,
	}
	return m, countdownTickCmd()
}

func (m Model) onCancelResult(msg CancelResultMsg) (tea.Model, tea.Cmd) {
	m.AlarmState = m.rec.State()
	m.Countdown = reconciler.Countdown{}
	m.Ringing = nil
	m.Paused = false
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return m, nil
	}
	m.CurrentView = ViewPlan
	m.refreshWakeOptions()
	m.Status = StatusBar{Text: "alarm cancelled", IsError: false}
	return m, nil
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var followUp tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Wake: func(a commands.WakeArgs) (commands.Result, error) {
			fireAt := nextClockOccurrence(m.now(), a.Hour, a.Minute).Add(time.Duration(a.AdjustMinutes) * time.Minute)
			cycleCount := estimateCycles(m.now(), fireAt)
			if err := m.rec.Select(fireAt, cycleCount, a.AdjustMinutes); err != nil {
				return commands.Result{}, err
			}
			m.spinnerActive = true
			m.CurrentView = ViewAlarm
			followUp = tea.Batch(m.armSpinner.Tick, confirmCmd(m.rec, fireAt, cycleCount, a.AdjustMinutes))
			return commands.Result{Message: fmt.Sprintf("arming alarm for %s", fireAt.Format("15:04"))}, nil
		},
		Plan: func() (commands.Result, error) {
			m.CurrentView = ViewPlan
			m.refreshWakeOptions()
			return commands.Result{Message: "wake options refreshed"}, nil
		},
		Cancel: func() (commands.Result, error) {
			followUp = cancelCmd(m.rec)
			return commands.Result{Message: "cancelling alarm"}, nil
		},
		Status: func() (commands.Result, error) {
			return commands.Result{Message: m.describeAlarm()}, nil
		},
		Pause: func() (commands.Result, error) {
			state := m.rec.State()
			if state.Phase != reconciler.PhaseActive || state.PlatformID == "" {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no armed alarm to pause"}
			}
			if err := m.svc.Pause(context.Background(), state.PlatformID); err != nil {
				return commands.Result{}, err
			}
			m.Paused = true
			return commands.Result{Message: "alarm paused"}, nil
		},
		Resume: func() (commands.Result, error) {
			state := m.rec.State()
			if state.Phase != reconciler.PhaseActive || state.PlatformID == "" {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no armed alarm to resume"}
			}
			if err := m.svc.Resume(context.Background(), state.PlatformID); err != nil {
				return commands.Result{}, err
			}
			m.Paused = false
			return commands.Result{Message: "alarm resumed"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	return m, followUp
}

func (m Model) describeAlarm() string {
	state := m.rec.State()
	switch state.Phase {
	case reconciler.PhaseActive:
		return fmt.Sprintf("alarm armed for %s (%d cycles)", state.FireAt.Format("15:04"), state.Cycles)
	case reconciler.PhasePending:
		return fmt.Sprintf("wake time %s picked, not armed yet", state.FireAt.Format("15:04"))
	case reconciler.PhaseArming:
		return "alarm is arming"
	default:
		return "no alarm armed"
	}
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Plan, Action: "switch to Plan"},
		{Key: m.Keys.Alarm, Action: "switch to Alarm"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewPlan:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "+/-", Action: "nudge wake time"},
			{Key: "enter", Action: "arm selected option"},
			{Key: "r", Action: "recompute options"},
		}
	case ViewAlarm:
		return []KeyBinding{
			{Key: "c", Action: "cancel alarm"},
			{Key: "p/o", Action: "pause / resume"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}

// nextClockOccurrence maps a wall-clock HH:MM onto the next instant it
// occurs, today if still ahead, otherwise tomorrow.
func nextClockOccurrence(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// estimateCycles counts how many full sleep cycles fit before an explicitly
// chosen wake time, clamped to at least one.
func estimateCycles(now, fireAt time.Time) int {
	usable := fireAt.Sub(now) - cycles.FallAsleepBuffer
	n := int(usable / cycles.CycleLength)
	if n < 1 {
		n = 1
	}
	if n > cycles.MaxCycles {
		n = cycles.MaxCycles
	}
	return n
}
