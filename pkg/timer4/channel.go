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

// Channel is the PWM output of a single pin.
type Channel struct {
	timer    *Timer
	pin      Pin
	value    uint16
	enabled  bool
	inverted bool
}

// Pin returns the pin driven by this channel.
func (c *Channel) Pin() Pin { return c.pin }

// Enabled returns true once Begin has been called.
func (c *Channel) Enabled() bool { return c.enabled }

// Inverted returns the polarity set by the last Begin call.
func (c *Channel) Inverted() bool { return c.inverted }

// Value returns the value passed to the last Write call.
// Begin resets it to 0.
func (c *Channel) Value() uint16 { return c.value }

// DutyPercent returns the duty cycle of the last written value.
func (c *Channel) DutyPercent() float64 {
	return DutyPercent(c.value, c.timer.topLimit)
}

// Begin connects the pin to Timer4 with a duty cycle of 0%.
// The first Begin call of any channel configures the peripheral.
// If invert is set, the output is high while the counter is above the value.
// Calling Begin again re-applies the output settings.
func (c *Channel) Begin(invert bool) error {
	t := c.timer
	if err := t.ensureConfigured(); err != nil {
		return maskAny(err)
	}
	// Start at 0% before connecting the output, to avoid a glitch
	// with whatever was left in the compare register.
	t.writeCompare(c.pin.CompareRegister(), 0)
	c.value = 0
	t.hw.EnableCompareOutput(c.pin)
	t.hw.SetOutputInverted(c.pin, invert)
	t.hw.ConfigureOutput(c.pin)
	c.enabled = true
	c.inverted = invert
	t.log.Debug().Str("pin", c.pin.String()).Bool("invert", invert).Msg("Began PWM output")
	return nil
}

// Write sets the duty cycle of the pin.
// The value must not exceed the TopLimit of the timer; this is not checked.
func (c *Channel) Write(value uint16) {
	c.value = value
	c.timer.writeCompare(c.pin.CompareRegister(), value)
}
