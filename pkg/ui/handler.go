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
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"

	"github.com/binkynet/FastPWM/pkg/service"
)

// Handler creates a Root model for every SSH session.
type Handler struct {
	svc service.Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// Handler grabs the terminal info of the session and passes it to a new
// Root model.
func (h *Handler) Handler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	r := NewRoot(h.svc)
	go func() {
		<-s.Context().Done()
		r.Close()
	}()
	if pty, _, active := s.Pty(); active {
		r.term = pty.Term
		r.width = pty.Window.Width
		r.height = pty.Window.Height
	}
	return r, []tea.ProgramOption{tea.WithAltScreen()}
}
