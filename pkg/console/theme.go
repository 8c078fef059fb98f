package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harunnryd/orb/pkg/turn"
)

// Orb colours per state.
const (
	ColorIdle      = "#3A3A3A"
	ColorListening = "#5EA1F4"
	ColorThinking  = "#8AA7FF"
	ColorSpeaking  = "#4CC9F0"
	ColorDim       = "#6E7681"
)

const barWidth = 20

// Styles holds the lipgloss styles used by the console.
type Styles struct {
	States map[turn.State]lipgloss.Style
	Bar    lipgloss.Style
	Help   lipgloss.Style
	Prompt lipgloss.Style
}

func DefaultStyles() Styles {
	state := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
	}
	return Styles{
		States: map[turn.State]lipgloss.Style{
			turn.StateIdle:      state(ColorIdle),
			turn.StateListening: state(ColorListening),
			turn.StateThinking:  state(ColorThinking),
			turn.StateSpeaking:  state(ColorSpeaking),
		},
		Bar:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSpeaking)),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim)),
		Prompt: lipgloss.NewStyle().Bold(true),
	}
}

// State renders the state name with its accessibility label.
func (s Styles) State(st turn.State) string {
	style, ok := s.States[st]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(fmt.Sprintf("● %-9s", st.String())) + " " + s.Help.Render(st.Label())
}

// Level renders the audio level as a fixed width bar.
func (s Styles) Level(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level*barWidth + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return s.Bar.Render(bar) + fmt.Sprintf(" %3.0f%%", level*100)
}

// Status renders a one-line session summary.
func (s Styles) Status(st turn.State, level float64, videoOn bool) string {
	video := "off"
	if videoOn {
		video = "on"
	}
	return s.State(st) + "  " + s.Level(level) + "  " + s.Help.Render("video "+video)
}
