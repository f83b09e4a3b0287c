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

package bridge

import (
	"github.com/pkg/errors"

	"github.com/binkynet/FastPWM/pkg/service/bridge/atmega32u4"
	"github.com/binkynet/FastPWM/pkg/service/util"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// VirtualConfig configures the simulated microcontroller.
type VirtualConfig struct {
	// PLLLockPolls is the number of times the PLL lock bit reads 0 after
	// the PLL is enabled. If negative, the PLL never locks.
	PLLLockPolls int
	// InterruptsDisabled starts with the global interrupt flag cleared.
	InterruptsDisabled bool
	// MaxRecordedOps limits the number of recorded operations.
	// Once reached, the oldest half is dropped. Defaults to DefaultMaxRecordedOps.
	MaxRecordedOps int
}

// DefaultMaxRecordedOps is the default for VirtualConfig.MaxRecordedOps.
const DefaultMaxRecordedOps = 4096

// Op is a single peripheral operation recorded by the virtual bridge.
type Op struct {
	// Name of the timer4.Peripheral (or Interrupts) method.
	Name string
	// Register written (or read) by the operation; zero if none.
	Register atmega32u4.Register
	// Value written to the register.
	Value uint8
	// InterruptsEnabled is the global interrupt flag at the time of the operation.
	InterruptsEnabled bool
}

// VirtualBridge simulates the Timer4 registers of an ATmega32U4.
// It records the most recent operations so their order can be inspected.
type VirtualBridge struct {
	lock     util.SpinLock
	conf     VirtualConfig
	claimed  bool
	regs     [256]uint8
	compare  map[timer4.CompareRegister]uint16
	pllPolls int
	ops      []Op
}

var (
	_ API               = &VirtualBridge{}
	_ timer4.Peripheral = &VirtualBridge{}
	_ timer4.Interrupts = &VirtualBridge{}
)

// NewVirtualBridge implements the bridge with a simulated microcontroller.
func NewVirtualBridge(conf VirtualConfig) *VirtualBridge {
	if conf.MaxRecordedOps <= 0 {
		conf.MaxRecordedOps = DefaultMaxRecordedOps
	}
	b := &VirtualBridge{
		conf:    conf,
		compare: make(map[timer4.CompareRegister]uint16),
	}
	if !conf.InterruptsDisabled {
		b.regs[atmega32u4.SREG] = atmega32u4.SREG_I
	}
	return b
}

// Timer4 returns the simulated peripheral and interrupt flag.
func (b *VirtualBridge) Timer4() (timer4.Peripheral, timer4.Interrupts, error) {
	return b, b, nil
}

// Close the bridge.
func (b *VirtualBridge) Close() error {
	return nil
}

// Claim binds the peripheral to a single Timer.
func (b *VirtualBridge) Claim() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.claimed {
		return errors.New("virtual timer4 already claimed")
	}
	b.claimed = true
	return nil
}

// EnableAsyncClock starts the PLL.
func (b *VirtualBridge) EnableAsyncClock() {
	b.lock.Do(func() {
		b.pllPolls = 0
		b.setBits("EnableAsyncClock", atmega32u4.PLLCSR, atmega32u4.PLLCSR_PLLE)
	})
}

// AsyncClockLocked returns true once the PLL reports lock.
func (b *VirtualBridge) AsyncClockLocked() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	pllLockPollsTotal.Inc()
	b.record("AsyncClockLocked", atmega32u4.PLLCSR, b.regs[atmega32u4.PLLCSR])
	if b.regs[atmega32u4.PLLCSR]&atmega32u4.PLLCSR_PLLE == 0 || b.conf.PLLLockPolls < 0 {
		return false
	}
	if b.pllPolls < b.conf.PLLLockPolls {
		b.pllPolls++
		return false
	}
	b.regs[atmega32u4.PLLCSR] |= atmega32u4.PLLCSR_PLOCK
	return true
}

// SetPLLLockPolls changes the number of polls before the PLL locks,
// starting from the next EnableAsyncClock. If negative, the PLL never locks.
func (b *VirtualBridge) SetPLLLockPolls(polls int) {
	b.lock.Do(func() {
		b.conf.PLLLockPolls = polls
	})
}

// SetPostscaler programs the PLLTM field.
func (b *VirtualBridge) SetPostscaler(p timer4.Postscaler) {
	b.lock.Do(func() {
		v := b.regs[atmega32u4.PLLFRQ]&^atmega32u4.PLLFRQ_PLLTM | (uint8(p)<<atmega32u4.PLLFRQ_PLLTM_Pos)&atmega32u4.PLLFRQ_PLLTM
		b.write("SetPostscaler", atmega32u4.PLLFRQ, v)
	})
}

// SetPrescaler programs the CS4 field.
func (b *VirtualBridge) SetPrescaler(p timer4.Prescaler) {
	b.lock.Do(func() {
		v := b.regs[atmega32u4.TCCR4B]&^atmega32u4.TCCR4B_CS4 | uint8(p)&atmega32u4.TCCR4B_CS4
		b.write("SetPrescaler", atmega32u4.TCCR4B, v)
	})
}

// EnableEnhancedResolution sets ENHC4.
func (b *VirtualBridge) EnableEnhancedResolution() {
	b.lock.Do(func() {
		b.setBits("EnableEnhancedResolution", atmega32u4.TCCR4E, atmega32u4.TCCR4E_ENHC4)
	})
}

// SelectFastPWM clears WGM41:40.
func (b *VirtualBridge) SelectFastPWM() {
	b.lock.Do(func() {
		b.clearBits("SelectFastPWM", atmega32u4.TCCR4D, atmega32u4.TCCR4D_WGM41|atmega32u4.TCCR4D_WGM40)
	})
}

// WriteHighByte writes TC4H.
func (b *VirtualBridge) WriteHighByte(v uint8) {
	b.lock.Do(func() {
		b.write("WriteHighByte", atmega32u4.TC4H, v&atmega32u4.TC4H_MASK)
	})
}

// WriteLowByte writes the low byte of a compare register and latches
// TC4H into its high bits.
func (b *VirtualBridge) WriteLowByte(r timer4.CompareRegister, v uint8) {
	b.lock.Do(func() {
		reg, _ := atmega32u4.CompareRegisterOf(r)
		b.write("WriteLowByte", reg, v)
		b.compare[r] = uint16(b.regs[atmega32u4.TC4H])<<8 | uint16(v)
	})
}

// EnableCompareOutput sets COM4x1 & PWM4x of the pin.
func (b *VirtualBridge) EnableCompareOutput(p timer4.Pin) {
	b.lock.Do(func() {
		out, found := atmega32u4.OutputOf(p)
		if !found {
			b.record("EnableCompareOutput", 0, 0)
			return
		}
		b.setBits("EnableCompareOutput", out.Control, out.Enable)
	})
}

// SetOutputInverted sets or clears COM4x0 of the pin.
func (b *VirtualBridge) SetOutputInverted(p timer4.Pin, inverted bool) {
	b.lock.Do(func() {
		out, found := atmega32u4.OutputOf(p)
		if !found {
			b.record("SetOutputInverted", 0, 0)
			return
		}
		if inverted {
			b.setBits("SetOutputInverted", out.Control, out.Invert)
		} else {
			b.clearBits("SetOutputInverted", out.Control, out.Invert)
		}
	})
}

// ConfigureOutput sets the DDR bit of the pin.
func (b *VirtualBridge) ConfigureOutput(p timer4.Pin) {
	b.lock.Do(func() {
		out, found := atmega32u4.OutputOf(p)
		if !found {
			b.record("ConfigureOutput", 0, 0)
			return
		}
		b.setBits("ConfigureOutput", out.DDR, out.DDRBit)
	})
}

// Disable interrupts and return the previous SREG.
func (b *VirtualBridge) Disable() timer4.InterruptState {
	b.lock.Lock()
	defer b.lock.Unlock()

	state := b.regs[atmega32u4.SREG]
	b.write("DisableInterrupts", atmega32u4.SREG, state&^atmega32u4.SREG_I)
	return timer4.InterruptState(state)
}

// Restore the SREG returned by Disable.
func (b *VirtualBridge) Restore(state timer4.InterruptState) {
	b.lock.Do(func() {
		b.write("RestoreInterrupts", atmega32u4.SREG, uint8(state))
	})
}

// SetInterruptsEnabled sets or clears the global interrupt flag, like
// the sei & cli instructions.
func (b *VirtualBridge) SetInterruptsEnabled(enabled bool) {
	b.lock.Do(func() {
		if enabled {
			b.regs[atmega32u4.SREG] |= atmega32u4.SREG_I
		} else {
			b.regs[atmega32u4.SREG] &^= atmega32u4.SREG_I
		}
	})
}

// InterruptsEnabled returns the global interrupt flag.
func (b *VirtualBridge) InterruptsEnabled() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs[atmega32u4.SREG]&atmega32u4.SREG_I != 0
}

// Register returns the content of a register.
func (b *VirtualBridge) Register(r atmega32u4.Register) uint8 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs[r]
}

// Compare returns the 11-bit value of a compare register.
func (b *VirtualBridge) Compare(r timer4.CompareRegister) uint16 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.compare[r]
}

// Ops returns the recorded operations, oldest first.
func (b *VirtualBridge) Ops() []Op {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]Op(nil), b.ops...)
}

// OpCount returns the number of recorded operations with the given name.
func (b *VirtualBridge) OpCount(name string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	count := 0
	for _, op := range b.ops {
		if op.Name == name {
			count++
		}
	}
	return count
}

// ResetOps clears the recorded operations.
func (b *VirtualBridge) ResetOps() {
	b.lock.Do(func() {
		b.ops = nil
	})
}

// The helpers below expect the lock to be held.

func (b *VirtualBridge) setBits(name string, r atmega32u4.Register, bits uint8) {
	b.write(name, r, b.regs[r]|bits)
}

func (b *VirtualBridge) clearBits(name string, r atmega32u4.Register, bits uint8) {
	b.write(name, r, b.regs[r]&^bits)
}

func (b *VirtualBridge) write(name string, r atmega32u4.Register, v uint8) {
	// Record before the write, so SREG writes show the flag they change.
	b.record(name, r, v)
	b.regs[r] = v
	registerWritesTotal.WithLabelValues(r.String()).Inc()
}

func (b *VirtualBridge) record(name string, r atmega32u4.Register, v uint8) {
	if limit := b.conf.MaxRecordedOps; len(b.ops) >= limit {
		n := copy(b.ops, b.ops[len(b.ops)-limit/2:])
		b.ops = b.ops[:n]
	}
	b.ops = append(b.ops, Op{
		Name:              name,
		Register:          r,
		Value:             v,
		InterruptsEnabled: b.regs[atmega32u4.SREG]&atmega32u4.SREG_I != 0,
	})
}
