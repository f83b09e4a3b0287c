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

// Package timer4 generates fast PWM signals with the high speed Timer4 of
// the ATmega32U4 on up to 3 pins (13, 10 & 6 of the Arduino Leonardo).
//
// All pins share the clock, prescaler and TOP limit that are chosen when the
// Timer is created. The duty cycle of each pin is set independently.
//
//	D     = value / TOP * 100%
//	R     = 100% / TOP
//	f_PWM = f_clk / (N_prescaler * TOP)                  (system clock)
//	f_PWM = f_USB / (N_prescaler * N_postscaler * TOP)   (PLL clock)
//
// A Timer is not safe for concurrent use. Callers running in multiple
// goroutines must serialize access.
package timer4

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Timer configures Timer4 for fast PWM and sets the duty cycle of its pins.
// No register is touched before the first channel is begun.
type Timer struct {
	log        zerolog.Logger
	hw         Peripheral
	irq        Interrupts
	source     ClockSource
	prescaler  Prescaler
	postscaler Postscaler
	nominalTop uint16
	topLimit   uint16

	lockTimeout      time.Duration
	lockPollInterval time.Duration
	lockPolls        int

	configured bool
	channels   [channelCount]Channel
}

// New creates a Timer that runs from the system clock.
// The topLimit must not exceed MaxTopLimit.
func New(deps Dependencies, prescaler Prescaler, topLimit uint16) (*Timer, error) {
	return NewFromConfig(Config{
		Prescaler: prescaler,
		TopLimit:  topLimit,
	}, deps)
}

// NewAsync creates a Timer that runs from the PLL clock, divided by the given
// postscaler. The topLimit must not exceed MaxTopLimit; the counter
// runs at double rate so TOP is set to topLimit/2.
func NewAsync(deps Dependencies, postscaler Postscaler, prescaler Prescaler, topLimit uint16) (*Timer, error) {
	// A zero postscaler would silently select the system clock.
	if err := postscaler.Validate(); err != nil {
		return nil, maskAny(err)
	}
	return NewFromConfig(Config{
		Prescaler:  prescaler,
		Postscaler: postscaler,
		TopLimit:   topLimit,
	}, deps)
}

// NewFromConfig creates a Timer from the given config.
func NewFromConfig(conf Config, deps Dependencies) (*Timer, error) {
	if deps.Peripheral == nil || deps.Interrupts == nil {
		return nil, errors.New("peripheral and interrupts are required")
	}
	log := deps.Logger.With().Str("component", "timer4").Logger()
	// The source follows the requested postscaler, also when truncation
	// masks it to zero (PLLTM = 0 leaves the timer without PLL clock).
	source := conf.ClockSource()
	if conf.Permissive {
		if err := conf.Validate(); err != nil {
			log.Warn().Err(err).Msg("Invalid config; truncating to register field width")
		}
		conf = conf.truncated()
	} else if err := conf.Validate(); err != nil {
		return nil, maskAny(err)
	}
	if err := deps.Peripheral.Claim(); err != nil {
		return nil, errors.Wrapf(ErrPeripheralBound, "claim failed: %v", err)
	}
	t := &Timer{
		log:              log,
		hw:               deps.Peripheral,
		irq:              deps.Interrupts,
		source:           source,
		prescaler:        conf.Prescaler,
		nominalTop:       conf.TopLimit,
		topLimit:         storedTopLimit(source, conf.TopLimit),
		lockTimeout:      conf.LockTimeout,
		lockPollInterval: conf.LockPollInterval,
	}
	if source == ClockAsynchronous {
		t.postscaler = conf.Postscaler
	}
	for i, pin := range Pins() {
		t.channels[i] = Channel{timer: t, pin: pin}
	}
	return t, nil
}

// ClockSource returns the clock that drives the counter.
func (t *Timer) ClockSource() ClockSource { return t.source }

// Prescaler returns the timer clock prescaler.
func (t *Timer) Prescaler() Prescaler { return t.prescaler }

// Postscaler returns the PLL postscaler, zero for the system clock.
func (t *Timer) Postscaler() Postscaler { return t.postscaler }

// TopLimit returns the TOP value of the counter (halved for the PLL clock).
func (t *Timer) TopLimit() uint16 { return t.topLimit }

// NominalTopLimit returns the top limit as given at construction.
func (t *Timer) NominalTopLimit() uint16 { return t.nominalTop }

// Configured returns true once the peripheral has been configured.
func (t *Timer) Configured() bool { return t.configured }

// ClockLockPolls returns the number of times the PLL lock bit was polled
// without being set.
func (t *Timer) ClockLockPolls() int { return t.lockPolls }

// Channel returns the channel for the given pin.
func (t *Timer) Channel(pin Pin) (*Channel, error) {
	if err := pin.Validate(); err != nil {
		return nil, maskAny(err)
	}
	return &t.channels[pin.index()], nil
}

// Channels returns the channels of all pins.
func (t *Timer) Channels() []*Channel {
	result := make([]*Channel, 0, channelCount)
	for i := range t.channels {
		result = append(result, &t.channels[i])
	}
	return result
}

// Pin13 returns the channel driving pin 13 (OC4A).
func (t *Timer) Pin13() *Channel { return &t.channels[Pin13.index()] }

// Pin10 returns the channel driving pin 10 (OC4B).
func (t *Timer) Pin10() *Channel { return &t.channels[Pin10.index()] }

// Pin6 returns the channel driving pin 6 (OC4D).
func (t *Timer) Pin6() *Channel { return &t.channels[Pin6.index()] }

// Frequency returns the PWM frequency for the given frequency (in Hz) of
// the selected clock source.
func (t *Timer) Frequency(sourceHz float64) float64 {
	return Frequency(sourceHz, t.prescaler, t.postscaler, t.nominalTop)
}

// ensureConfigured puts the peripheral in fast PWM mode.
// It runs only once; subsequent calls do nothing.
func (t *Timer) ensureConfigured() error {
	if t.configured {
		return nil
	}
	if t.source == ClockAsynchronous {
		t.hw.EnableAsyncClock()
		if err := t.waitForClockLock(); err != nil {
			return maskAny(err)
		}
		t.hw.SetPostscaler(t.postscaler)
	}
	t.hw.SetPrescaler(t.prescaler)
	t.hw.EnableEnhancedResolution()
	t.hw.SelectFastPWM()
	t.writeCompare(OCR4C, t.topLimit)
	t.configured = true
	t.log.Debug().
		Str("clock", t.source.String()).
		Str("prescaler", t.prescaler.String()).
		Uint16("top", t.topLimit).
		Msg("Configured timer4 for fast PWM")
	return nil
}

// waitForClockLock polls until the PLL reports lock.
// Without a LockTimeout this never returns when the PLL does not lock.
func (t *Timer) waitForClockLock() error {
	var deadline time.Time
	if t.lockTimeout > 0 {
		deadline = time.Now().Add(t.lockTimeout)
	}
	for !t.hw.AsyncClockLocked() {
		t.lockPolls++
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return errors.Wrapf(ErrClockLockTimeout, "no lock after %s (%d polls)", t.lockTimeout, t.lockPolls)
		}
		if t.lockPollInterval > 0 {
			time.Sleep(t.lockPollInterval)
		}
	}
	t.log.Debug().Int("polls", t.lockPolls).Msg("PLL locked")
	return nil
}

// writeCompare writes an 11-bit value into a compare register.
// TC4H is shared by all compare registers, so the high & low byte writes
// must not be interleaved with an interrupt handler touching Timer4.
func (t *Timer) writeCompare(r CompareRegister, value uint16) {
	state := t.irq.Disable()
	t.hw.WriteHighByte(uint8(value >> 8))
	t.hw.WriteLowByte(r, uint8(value))
	t.irq.Restore(state)
}
