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

package timer4

import (
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// MaxTopLimit is the largest TOP value of the 11-bit counter.
	MaxTopLimit = 2047

	topLimitFieldMask = 0x07FF
)

// ClockSource selects the clock that drives Timer4.
type ClockSource uint8

const (
	// ClockInternal runs Timer4 from the system clock.
	ClockInternal ClockSource = iota
	// ClockAsynchronous runs Timer4 from the PLL (USB) clock.
	ClockAsynchronous
)

// String returns "internal" or "asynchronous".
func (s ClockSource) String() string {
	if s == ClockAsynchronous {
		return "asynchronous"
	}
	return "internal"
}

// Config of a Timer.
type Config struct {
	// Prescaler of the timer clock.
	Prescaler Prescaler
	// Postscaler of the PLL clock.
	// If zero, the timer runs from the system clock, otherwise from the PLL.
	Postscaler Postscaler
	// TopLimit is the nominal value the counter counts up to.
	// When running from the PLL, the stored TOP is TopLimit/2.
	TopLimit uint16
	// LockTimeout bounds the wait for the PLL to lock.
	// If zero, the wait never ends until the PLL locks.
	LockTimeout time.Duration
	// LockPollInterval is the sleep between PLL lock polls.
	// If zero, the lock bit is polled in a busy loop.
	LockPollInterval time.Duration
	// Permissive disables validation of the fields above.
	// Out of range values are masked to the width of their register field
	// (and a warning is logged) instead of rejected.
	Permissive bool
}

// Dependencies of a Timer.
type Dependencies struct {
	Logger     zerolog.Logger
	Peripheral Peripheral
	Interrupts Interrupts
}

// ClockSource returns the clock source selected by this config.
func (c Config) ClockSource() ClockSource {
	if c.Postscaler != 0 {
		return ClockAsynchronous
	}
	return ClockInternal
}

// Validate the config, returning all violations found.
func (c Config) Validate() error {
	ae := &aerr.AggregateError{}
	ae.Add(c.Prescaler.Validate())
	if c.ClockSource() == ClockAsynchronous {
		ae.Add(c.Postscaler.Validate())
	}
	if c.TopLimit > MaxTopLimit {
		ae.Add(errors.Wrapf(ErrTopLimitOutOfRange, "%d exceeds %d", c.TopLimit, MaxTopLimit))
	}
	if c.LockTimeout < 0 || c.LockPollInterval < 0 {
		ae.Add(errors.New("lock timeout and poll interval must not be negative"))
	}
	return ae.AsError()
}

// truncated returns a copy of the config with all fields masked to their
// register field width.
func (c Config) truncated() Config {
	c.Prescaler &= prescalerFieldMask
	c.Postscaler &= postscalerFieldMask
	c.TopLimit &= topLimitFieldMask
	if c.LockTimeout < 0 {
		c.LockTimeout = 0
	}
	if c.LockPollInterval < 0 {
		c.LockPollInterval = 0
	}
	return c
}

// storedTopLimit returns the value written into OCR4C.
// The PLL clock runs the counter at double rate, so the TOP is halved.
func storedTopLimit(source ClockSource, topLimit uint16) uint16 {
	if source == ClockAsynchronous {
		return topLimit / 2
	}
	return topLimit
}
