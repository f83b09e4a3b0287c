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

// Peripheral contains the register level operations of the Timer4 peripheral
// (and the PLL feeding it) that the Timer needs.
// Implementations are provided by the bridge.
type Peripheral interface {
	// Claim binds the peripheral to a single Timer.
	// It must fail when the peripheral has already been claimed and must
	// not touch any register.
	Claim() error

	// EnableAsyncClock starts the PLL (PLLE).
	EnableAsyncClock()
	// AsyncClockLocked returns true once the PLL reports lock (PLOCK).
	AsyncClockLocked() bool
	// SetPostscaler programs the PLL postscaler field (PLLTM).
	SetPostscaler(p Postscaler)
	// SetPrescaler programs the Timer4 clock select field (CS4).
	SetPrescaler(p Prescaler)
	// EnableEnhancedResolution selects 11-bit compare mode (ENHC4).
	EnableEnhancedResolution()
	// SelectFastPWM selects the waveform mode that counts up to OCR4C (WGM41:40 = 0).
	SelectFastPWM()

	// WriteHighByte writes the shared high byte register (TC4H).
	WriteHighByte(v uint8)
	// WriteLowByte writes the low byte of a compare register, latching
	// TC4H as its high bits.
	WriteLowByte(r CompareRegister, v uint8)

	// EnableCompareOutput connects the compare unit of the pin in PWM mode (COM4x1, PWM4x).
	EnableCompareOutput(p Pin)
	// SetOutputInverted sets or clears the polarity bit of the pin (COM4x0).
	SetOutputInverted(p Pin, inverted bool)
	// ConfigureOutput makes the pin a digital output.
	ConfigureOutput(p Pin)
}

// InterruptState is the global interrupt state saved by Interrupts.Disable.
type InterruptState uintptr

// Interrupts gives access to the global interrupt flag.
type Interrupts interface {
	// Disable interrupts and return the previous state.
	Disable() InterruptState
	// Restore the interrupt state returned by Disable.
	Restore(state InterruptState)
}
