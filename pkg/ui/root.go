// Copyright 2024 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

const (
	actionTimeout = time.Second * 5
	maxBarWidth   = 60
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Root is the terminal UI showing & controlling all PWM pins.
type Root struct {
	svc      service.Service
	changes  *changeWatcher
	term     string
	width    int
	height   int
	selected int
	status   service.Status
	bar      progress.Model
	lastErr  error
}

var _ tea.Model = Root{}

// NewRoot creates the UI for the given service.
// The UI refreshes on every duty change & begun pin; call Close when done.
func NewRoot(svc service.Service) Root {
	return Root{
		svc:     svc,
		changes: newChangeWatcher(svc),
		status:  svc.Status(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Close stops listening for service events.
func (r Root) Close() {
	r.changes.close()
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return r.changes.wait(r.svc)
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		r.status = service.Status(msg)
		return r, r.changes.wait(r.svc)
	case actionResultMsg:
		r.lastErr = msg.err
		r.status = r.svc.Status()
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
		r.bar.Width = min(maxBarWidth, max(10, msg.Width-40))
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case "tab":
			r.selected = (r.selected + 1) % len(timer4.Pins())
		case "shift+tab":
			r.selected = (r.selected + len(timer4.Pins()) - 1) % len(timer4.Pins())
		case "up", "+":
			return r, r.adjust(1)
		case "down", "-":
			return r, r.adjust(-1)
		case "pgup":
			return r, r.adjust(10)
		case "pgdown":
			return r, r.adjust(-10)
		case "b":
			return r, doBegin(r.svc, r.selectedPin(), false)
		case "i":
			return r, doBegin(r.svc, r.selectedPin(), !r.selectedChannel().Inverted)
		}
	}
	return r, nil
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	var sb strings.Builder
	sb.WriteString(r.headerView())
	sb.WriteString("\n\n")
	for i, cs := range r.status.Channels {
		sb.WriteString(r.channelView(i, cs))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	if r.lastErr != nil {
		sb.WriteString(errorStyle.Render(r.lastErr.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(`tab/shift+tab - Select pin
up/down (+/-) - Adjust duty by 1%
pgup/pgdown   - Adjust duty by 10%
b             - Begin pin
i             - Begin pin with toggled inversion
q             - Disconnect`))
	sb.WriteString("\n")
	return sb.String()
}

func (r Root) headerView() string {
	st := r.status
	clock := st.ClockSource + " " + st.Prescaler
	if st.Postscaler != "" {
		clock += " " + st.Postscaler
	}
	info := fmt.Sprintf("  %s  TOP=%d", clock, st.TopLimit)
	if st.FrequencyText != "" {
		info += "  " + st.FrequencyText
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("Timer4 fast PWM"),
		info,
	)
}

func (r Root) channelView(index int, cs service.ChannelStatus) string {
	marker := "  "
	name := fmt.Sprintf("%-5s", cs.Pin.String())
	if index == r.selected {
		marker = "> "
		name = selectedStyle.Render(name)
	}
	state := "off"
	if cs.Enabled {
		state = "on "
		if cs.Inverted {
			state = "inv"
		}
	}
	line := fmt.Sprintf("%s%s %s %4d/%-4d %s %6.2f%%", marker, name, state,
		cs.Value, r.status.TopLimit, r.bar.ViewAs(clampPercent(cs.DutyPercent)/100), cs.DutyPercent)
	if !cs.Enabled {
		return disabledStyle.Render(line)
	}
	return line
}

func (r Root) selectedPin() timer4.Pin {
	return timer4.Pins()[r.selected]
}

func (r Root) selectedChannel() service.ChannelStatus {
	pin := r.selectedPin()
	for _, cs := range r.status.Channels {
		if cs.Pin == pin {
			return cs
		}
	}
	return service.ChannelStatus{Pin: pin}
}

// adjust the duty of the selected pin by the given percentage of TOP.
func (r Root) adjust(percent int) tea.Cmd {
	top := int(r.status.TopLimit)
	step := max(1, top/100) * percent
	value := int(r.selectedChannel().Value) + step
	value = max(0, min(top, value))
	return doSet(r.svc, r.selectedPin(), uint16(value))
}

func clampPercent(p float64) float64 {
	return max(0, min(100, p))
}

type statusMsg service.Status

type actionResultMsg struct {
	err error
}

func doSet(svc service.Service, pin timer4.Pin, value uint16) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{err: svc.Set(ctx, pin, value)}
	}
}

func doBegin(svc service.Service, pin timer4.Pin, invert bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{err: svc.Begin(ctx, pin, invert)}
	}
}
