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
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/binkynet/FastPWM/pkg/service"
)

// changeWatcher turns service events into status refreshes.
// Bursts of events are coalesced into a single pending change.
type changeWatcher struct {
	changes   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	cancels   []context.CancelFunc
}

func newChangeWatcher(svc service.Service) *changeWatcher {
	w := &changeWatcher{
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.cancels = append(w.cancels,
		svc.RegisterDutyChangedReceiver(func(service.DutyChanged) { w.notify() }),
		svc.RegisterChannelBegunReceiver(func(service.ChannelBegun) { w.notify() }),
	)
	return w
}

func (w *changeWatcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// close unregisters the receivers and ends a pending wait.
func (w *changeWatcher) close() {
	w.closeOnce.Do(func() {
		for _, cancel := range w.cancels {
			cancel()
		}
		close(w.done)
	})
}

// wait returns a command that delivers the service status after the next change.
func (w *changeWatcher) wait(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.changes:
			return statusMsg(svc.Status())
		case <-w.done:
			return nil
		}
	}
}
