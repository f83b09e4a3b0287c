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

//go:build tinygo && avr

// Firmware for an Arduino Leonardo that fades pins 13, 10 (inverted) & 6
// with a 20kHz PWM signal from the PLL.
//
//	tinygo flash -target=arduino-leonardo ./cmd/leonardo
package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service/bridge/avr"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

const (
	// f_USB / (N_prescaler * N_postscaler * TOP) = 48MHz / (1 * 2 * 1200) = 20kHz
	topLimit = 1200
	step     = 8
)

func main() {
	hw, irq := avr.New()
	t, err := timer4.NewAsync(timer4.Dependencies{
		Logger:     zerolog.Nop(),
		Peripheral: hw,
		Interrupts: irq,
	}, timer4.APS2, timer4.PS1, topLimit)
	if err != nil {
		panic(err)
	}
	pins := []struct {
		ch     *timer4.Channel
		invert bool
	}{
		{t.Pin13(), false},
		{t.Pin10(), true},
		{t.Pin6(), false},
	}
	for _, p := range pins {
		if err := p.ch.Begin(p.invert); err != nil {
			panic(err)
		}
	}

	top := int(t.TopLimit())
	value, delta := 0, step
	for {
		for i, p := range pins {
			// Spread the pins over the period.
			v := (value + i*top/3) % (top + 1)
			p.ch.Write(uint16(v))
		}
		value += delta
		if value >= top || value <= 0 {
			delta = -delta
		}
		time.Sleep(time.Millisecond * 5)
	}
}
