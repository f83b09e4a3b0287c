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
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/service/bridge"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

func newTestRoot(t *testing.T) (Root, service.Service) {
	svc, err := service.NewService(service.Config{
		Timer:           timer4.Config{Prescaler: timer4.PS8, TopLimit: 1000},
		SourceFrequency: 16e6,
	}, service.Dependencies{
		Logger: zerolog.Nop(),
		Bridge: bridge.NewVirtualBridge(bridge.VirtualConfig{}),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return NewRoot(svc), svc
}

// press sends a key to the model and runs the resulting command (if any).
func press(r Root, key tea.KeyMsg) Root {
	m, cmd := r.Update(key)
	r = m.(Root)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, ok := msg.(actionResultMsg); ok {
				m, _ = r.Update(msg)
				r = m.(Root)
			}
		}
	}
	return r
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRootSelect(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()

	if r.selectedPin() != timer4.Pin13 {
		t.Errorf("Expected Pin13, got %s", r.selectedPin())
	}
	r = press(r, tea.KeyMsg{Type: tea.KeyTab})
	if r.selectedPin() != timer4.Pin10 {
		t.Errorf("Expected Pin10, got %s", r.selectedPin())
	}
	r = press(r, tea.KeyMsg{Type: tea.KeyShiftTab})
	r = press(r, tea.KeyMsg{Type: tea.KeyShiftTab})
	if r.selectedPin() != timer4.Pin6 {
		t.Errorf("Expected Pin6, got %s", r.selectedPin())
	}
}

func TestRootBeginAndAdjust(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()

	r = press(r, runes("b"))
	if r.lastErr != nil {
		t.Fatalf("Begin failed: %v", r.lastErr)
	}
	if cs := r.selectedChannel(); !cs.Enabled || cs.Inverted {
		t.Errorf("Unexpected channel status %+v", cs)
	}
	r = press(r, tea.KeyMsg{Type: tea.KeyPgUp})
	r = press(r, tea.KeyMsg{Type: tea.KeyUp})
	r = press(r, runes("+"))
	if v := r.selectedChannel().Value; v != 120 {
		t.Errorf("Expected 120, got %d", v)
	}
	r = press(r, runes("-"))
	if v := r.selectedChannel().Value; v != 110 {
		t.Errorf("Expected 110, got %d", v)
	}
	for i := 0; i < 3; i++ {
		r = press(r, tea.KeyMsg{Type: tea.KeyPgDown})
	}
	if v := r.selectedChannel().Value; v != 0 {
		t.Errorf("Expected 0, got %d", v)
	}
	if v, _ := svc.Get(timer4.Pin13); v != 0 {
		t.Errorf("Expected service value 0, got %d", v)
	}

	r = press(r, runes("i"))
	if cs := r.selectedChannel(); !cs.Inverted {
		t.Errorf("Expected inverted, got %+v", cs)
	}
	r = press(r, runes("i"))
	if cs := r.selectedChannel(); cs.Inverted {
		t.Errorf("Expected not inverted, got %+v", cs)
	}
}

func TestRootView(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()

	view := r.View()
	for _, expected := range []string{"Timer4 fast PWM", "TOP=1000", "2 kHz", "Pin13", "Pin10", "Pin6", "q             - Disconnect"} {
		if !strings.Contains(view, expected) {
			t.Errorf("Expected '%s' in view:\n%s", expected, view)
		}
	}
}

func TestRootQuit(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()

	_, cmd := r.Update(runes("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected QuitMsg")
	}
}

func TestRootRefreshesOnServiceEvents(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()
	defer r.Close()

	done := make(chan tea.Msg, 1)
	go func() { done <- r.Init()() }()
	if err := svc.Begin(context.Background(), timer4.Pin10, true); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("Timeout waiting for refresh")
	}
	m, cmd := r.Update(msg)
	r = m.(Root)
	if cmd == nil {
		t.Error("Expected the UI to wait for the next change")
	}
	r.selected = 1
	if cs := r.selectedChannel(); !cs.Enabled || !cs.Inverted {
		t.Errorf("Expected Pin10 begun & inverted, got %+v", cs)
	}
}

func TestRootCloseEndsWait(t *testing.T) {
	r, svc := newTestRoot(t)
	defer svc.Close()

	done := make(chan tea.Msg, 1)
	go func() { done <- r.Init()() }()
	r.Close()
	r.Close()
	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("Expected no message, got %T", msg)
		}
	case <-time.After(time.Second * 5):
		t.Fatal("Timeout waiting for wait to end")
	}
}
