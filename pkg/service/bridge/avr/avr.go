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

// Package avr implements the Timer4 peripheral on a real ATmega32U4.
// It must be built with TinyGo.
package avr

import (
	"errors"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"github.com/binkynet/FastPWM/pkg/service/bridge/atmega32u4"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// Timer4 gives access to the registers of Timer4.
type Timer4 struct {
	claimed bool
}

// Interrupts gives access to the global interrupt flag.
type Interrupts struct{}

var (
	timer4Peripheral = &Timer4{}

	_ timer4.Peripheral = timer4Peripheral
	_ timer4.Interrupts = Interrupts{}
)

// New returns the Timer4 peripheral of the microcontroller.
// There is only one; it can be claimed only once.
func New() (*Timer4, Interrupts) {
	return timer4Peripheral, Interrupts{}
}

// reg returns the memory mapped register at the given data space address.
func reg(r atmega32u4.Register) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(uintptr(r)))
}

// Claim binds the peripheral to a single Timer.
func (t *Timer4) Claim() error {
	state := interrupt.Disable()
	defer interrupt.Restore(state)
	if t.claimed {
		return errors.New("timer4 already claimed")
	}
	t.claimed = true
	return nil
}

// EnableAsyncClock starts the PLL.
func (t *Timer4) EnableAsyncClock() {
	reg(atmega32u4.PLLCSR).SetBits(atmega32u4.PLLCSR_PLLE)
}

// AsyncClockLocked returns true once the PLL reports lock.
func (t *Timer4) AsyncClockLocked() bool {
	return reg(atmega32u4.PLLCSR).HasBits(atmega32u4.PLLCSR_PLOCK)
}

// SetPostscaler programs the PLLTM field of PLLFRQ.
func (t *Timer4) SetPostscaler(p timer4.Postscaler) {
	r := reg(atmega32u4.PLLFRQ)
	r.Set(r.Get()&^atmega32u4.PLLFRQ_PLLTM | (uint8(p)<<atmega32u4.PLLFRQ_PLLTM_Pos)&atmega32u4.PLLFRQ_PLLTM)
}

// SetPrescaler programs the CS4 field of TCCR4B.
func (t *Timer4) SetPrescaler(p timer4.Prescaler) {
	r := reg(atmega32u4.TCCR4B)
	r.Set(r.Get()&^atmega32u4.TCCR4B_CS4 | uint8(p)&atmega32u4.TCCR4B_CS4)
}

// EnableEnhancedResolution sets ENHC4.
func (t *Timer4) EnableEnhancedResolution() {
	reg(atmega32u4.TCCR4E).SetBits(atmega32u4.TCCR4E_ENHC4)
}

// SelectFastPWM clears WGM41:40.
func (t *Timer4) SelectFastPWM() {
	reg(atmega32u4.TCCR4D).ClearBits(atmega32u4.TCCR4D_WGM41 | atmega32u4.TCCR4D_WGM40)
}

// WriteHighByte writes TC4H.
func (t *Timer4) WriteHighByte(v uint8) {
	reg(atmega32u4.TC4H).Set(v)
}

// WriteLowByte writes the low byte of a compare register.
func (t *Timer4) WriteLowByte(r timer4.CompareRegister, v uint8) {
	if addr, found := atmega32u4.CompareRegisterOf(r); found {
		reg(addr).Set(v)
	}
}

// EnableCompareOutput sets COM4x1 & PWM4x of the pin.
func (t *Timer4) EnableCompareOutput(p timer4.Pin) {
	if out, found := atmega32u4.OutputOf(p); found {
		reg(out.Control).SetBits(out.Enable)
	}
}

// SetOutputInverted sets or clears COM4x0 of the pin.
func (t *Timer4) SetOutputInverted(p timer4.Pin, inverted bool) {
	if out, found := atmega32u4.OutputOf(p); found {
		if inverted {
			reg(out.Control).SetBits(out.Invert)
		} else {
			reg(out.Control).ClearBits(out.Invert)
		}
	}
}

// ConfigureOutput sets the DDR bit of the pin.
func (t *Timer4) ConfigureOutput(p timer4.Pin) {
	if out, found := atmega32u4.OutputOf(p); found {
		reg(out.DDR).SetBits(out.DDRBit)
	}
}

// Disable interrupts and return the previous state.
func (Interrupts) Disable() timer4.InterruptState {
	return timer4.InterruptState(interrupt.Disable())
}

// Restore the state returned by Disable.
func (Interrupts) Restore(state timer4.InterruptState) {
	interrupt.Restore(interrupt.State(state))
}
