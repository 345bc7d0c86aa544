package views

import (
	"fmt"
	"strings"
)

type WakeOptionData struct {
	Cycles     int
	FireAt     string
	Sleep      string
	Category   string
	Adjusted   bool
	AdjustedTo string
}

type PlanPanelData struct {
	Now           string
	ListView      string
	Options       []WakeOptionData
	SelectedIndex int
	AdjustMinutes int
}

type AlarmPanelData struct {
	FireAt       string
	ArmedAt      string
	Cycles       int
	Countdown    string
	ProgressView string
	ProgressPct  int
	Fired        bool
	Ringing      bool
	RangAt       string
	Paused       bool
	ArmingView   string
	Arming       bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderPlanPanel(data PlanPanelData) string {
	var b strings.Builder
	b.WriteString("plan:\n")
	b.WriteString(fmt.Sprintf("going to sleep at: %s\n", data.Now))
	b.WriteString("actions: [j/k]move [+/-]nudge [enter]arm [r]refresh\n")
	b.WriteString(data.ListView + "\n")
	if len(data.Options) == 0 {
		b.WriteString("(no wake options)")
		return strings.TrimSpace(b.String())
	}
	for i, opt := range data.Options {
		cursor := " "
		if i == data.SelectedIndex {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %d cycle(s) -> %s  (%s asleep, %s)", cursor, opt.Cycles, opt.FireAt, opt.Sleep, opt.Category)
		if opt.Adjusted {
			line += fmt.Sprintf("  +%dm => %s", data.AdjustMinutes, opt.AdjustedTo)
		}
		b.WriteString(line + "\n")
	}
	if data.AdjustMinutes > 0 {
		b.WriteString(fmt.Sprintf("nudge: +%d minutes", data.AdjustMinutes))
	}
	return strings.TrimSpace(b.String())
}

func RenderAlarmPanel(data AlarmPanelData) string {
	var b strings.Builder
	b.WriteString("alarm:\n")
	if data.Arming {
		b.WriteString(fmt.Sprintf("arming %s %s\n", data.ArmingView, data.FireAt))
		b.WriteString("actions: (waiting for platform)")
		return strings.TrimSpace(b.String())
	}
	if data.FireAt == "" {
		b.WriteString("(no alarm armed)\n")
		b.WriteString("actions: [1]plan an alarm")
		return strings.TrimSpace(b.String())
	}
	if data.Ringing {
		b.WriteString(ringStyle.Render(fmt.Sprintf("RINGING since %s", data.RangAt)) + "\n")
	}
	b.WriteString(fmt.Sprintf("wake at: %s (%d cycles, armed %s)\n", data.FireAt, data.Cycles, data.ArmedAt))
	if data.Fired {
		b.WriteString("countdown: 00:00 (fired)\n")
	} else {
		b.WriteString(fmt.Sprintf("countdown: %s\n", data.Countdown))
	}
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	if data.Paused {
		b.WriteString("state: paused\n")
	}
	b.WriteString("actions: [c]cancel [p]pause [o]resume")
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("\nnotification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

// The guide pane is static markdown pushed through the same renderer the
// rest of the app uses.
const planGuideMarkdown = `# Sleep cycles

A full cycle runs about **90 minutes**, and it takes roughly
**15 minutes** to fall asleep. Waking between cycles beats waking
mid-cycle, even when it means less total sleep.

- *quick boost*: 1-2 cycles
- *recovery*: 3-4 cycles
- *full recharge*: 5-6 cycles
`

func RenderPlanGuide() string {
	return RenderMarkdown(planGuideMarkdown)
}
