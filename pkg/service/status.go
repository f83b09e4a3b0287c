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

package service

import (
	"github.com/dustin/go-humanize"

	"github.com/binkynet/FastPWM/pkg/timer4"
)

// Status of the timer and its pins.
type Status struct {
	ClockSource       string          `json:"clock_source"`
	Prescaler         string          `json:"prescaler"`
	Postscaler        string          `json:"postscaler,omitempty"`
	TopLimit          uint16          `json:"top_limit"`
	NominalTopLimit   uint16          `json:"nominal_top_limit"`
	Configured        bool            `json:"configured"`
	SourceFrequency   float64         `json:"source_frequency_hz,omitempty"`
	Frequency         float64         `json:"frequency_hz,omitempty"`
	FrequencyText     string          `json:"frequency,omitempty"`
	ResolutionPercent float64         `json:"resolution_percent"`
	ClockLockPolls    int             `json:"clock_lock_polls"`
	Channels          []ChannelStatus `json:"channels"`
}

// ChannelStatus is the status of a single pin.
type ChannelStatus struct {
	Pin         timer4.Pin `json:"pin"`
	Enabled     bool       `json:"enabled"`
	Inverted    bool       `json:"inverted"`
	Value       uint16     `json:"value"`
	DutyPercent float64    `json:"duty_percent"`
}

// Status returns the status of the timer and all its pins.
func (s *service) Status() Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t := s.timer
	result := Status{
		ClockSource:       t.ClockSource().String(),
		Prescaler:         t.Prescaler().String(),
		TopLimit:          t.TopLimit(),
		NominalTopLimit:   t.NominalTopLimit(),
		Configured:        t.Configured(),
		ResolutionPercent: timer4.ResolutionPercent(t.TopLimit()),
		ClockLockPolls:    t.ClockLockPolls(),
	}
	if t.ClockSource() == timer4.ClockAsynchronous {
		result.Postscaler = t.Postscaler().String()
	}
	if s.SourceFrequency > 0 {
		result.SourceFrequency = s.SourceFrequency
		result.Frequency = t.Frequency(s.SourceFrequency)
		result.FrequencyText = FormatFrequency(result.Frequency)
	}
	for _, ch := range t.Channels() {
		result.Channels = append(result.Channels, channelStatusOf(ch))
	}
	return result
}

// FormatFrequency formats a frequency (in Hz) with an SI prefix.
func FormatFrequency(hz float64) string {
	return humanize.SIWithDigits(hz, 2, "Hz")
}

func channelStatusOf(ch *timer4.Channel) ChannelStatus {
	return ChannelStatus{
		Pin:         ch.Pin(),
		Enabled:     ch.Enabled(),
		Inverted:    ch.Inverted(),
		Value:       ch.Value(),
		DutyPercent: ch.DutyPercent(),
	}
}
