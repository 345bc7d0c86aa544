package update

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/mrsleep/internal/model"
	"github.com/sandeepkv93/mrsleep/internal/platform"
	"github.com/sandeepkv93/mrsleep/internal/reconciler"
	"github.com/sandeepkv93/mrsleep/internal/views"
)

type View string

const (
	ViewPlan  View = "Plan"
	ViewAlarm View = "Alarm"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Plan  string
	Alarm string
	Help  string
	Quit  string
}

// Model is the resident TUI state. The reconciler owns alarm truth; the
// model only mirrors it for display and routes user actions into it.
type Model struct {
	CurrentView View
	Plan        PlanState
	Countdown   reconciler.Countdown
	AlarmState  reconciler.State
	Ringing     *platform.RingEvent
	Paused      bool
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	rec  *reconciler.Reconciler
	svc  platform.Service
	ring <-chan platform.RingEvent
	now  func() time.Time

	// Bubble components used for rich TUI controls
	optionList        list.Model
	commandInput      textinput.Model
	countdownProgress progress.Model
	armSpinner        spinner.Model
	helpModel         help.Model
	guideViewport     viewport.Model
	spinnerActive     bool
	maxCycles         int
}

type PlanState struct {
	Options       []model.WakeOption
	Cursor        int
	AdjustMinutes int
	BasedOn       time.Time
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// CountdownTickMsg carries the wall-clock instant the tick was emitted at so
// tests can replay ticks deterministically.
type CountdownTickMsg struct {
	At time.Time
}

type ConfirmResultMsg struct {
	Err error
}

type CancelResultMsg struct {
	Err error
}

type ReconcileDoneMsg struct {
	Err error
}

type AlarmRingMsg struct {
	Event platform.RingEvent
}

type FiredRecordedMsg struct {
	Err error
}

func NewModel(rec *reconciler.Reconciler, svc platform.Service, ring <-chan platform.RingEvent) Model {
	return NewModelWithConfig(rec, svc, ring, DefaultRuntimeConfig())
}

func NewModelWithConfig(rec *reconciler.Reconciler, svc platform.Service, ring <-chan platform.RingEvent, cfg RuntimeConfig) Model {
	m := Model{
		CurrentView: ViewPlan,
		Keys: GlobalKeyMap{
			Plan:  "1",
			Alarm: "2",
			Help:  "?",
			Quit:  "q",
		},
		rec:       rec,
		svc:       svc,
		ring:      ring,
		now:       time.Now,
		maxCycles: cfg.MaxCycles,
	}
	m.initBubbleComponents()
	m.refreshWakeOptions()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	m.optionList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 12)
	m.optionList.Title = "Wake options"
	m.optionList.SetShowHelp(false)
	m.optionList.SetFilteringEnabled(false)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 64
	m.commandInput.Width = 48

	m.countdownProgress = progress.New(progress.WithDefaultGradient())

	m.armSpinner = spinner.New()
	m.armSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.guideViewport = viewport.New(54, 12)
	m.guideViewport.SetContent(views.RenderPlanGuide())
}

func (m *Model) syncBubbleData() {
	items := make([]list.Item, 0, len(m.Plan.Options))
	for _, opt := range m.Plan.Options {
		title := fmt.Sprintf("%s  (%d cycles)", opt.FireAt.Format("15:04"), opt.Cycles)
		desc := fmt.Sprintf("%s asleep | %s", formatSleep(opt.Sleep), opt.Category)
		items = append(items, listItem{title: title, description: desc})
	}
	m.optionList.SetItems(items)
	if len(items) > 0 {
		m.optionList.Select(m.Plan.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}
}

func formatSleep(d time.Duration) string {
	h := int(d.Hours())
	min := int(d.Minutes()) % 60
	if min == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, min)
}
