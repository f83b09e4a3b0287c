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
	"testing"

	"github.com/binkynet/FastPWM/pkg/service/bridge/atmega32u4"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

func TestVirtualClaim(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{})
	hw, irq, err := b.Timer4()
	if err != nil {
		t.Fatalf("Timer4 failed: %v", err)
	}
	if hw == nil || irq == nil {
		t.Fatal("Expected peripheral & interrupts")
	}
	if err := hw.Claim(); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := hw.Claim(); err == nil {
		t.Error("Expected second claim to fail")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestVirtualInterrupts(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{})
	if !b.InterruptsEnabled() {
		t.Fatal("Expected interrupts enabled")
	}
	state := b.Disable()
	if b.InterruptsEnabled() {
		t.Error("Expected interrupts disabled")
	}
	inner := b.Disable()
	b.Restore(inner)
	if b.InterruptsEnabled() {
		t.Error("Expected interrupts still disabled after nested restore")
	}
	b.Restore(state)
	if !b.InterruptsEnabled() {
		t.Error("Expected interrupts enabled after restore")
	}

	b = NewVirtualBridge(VirtualConfig{InterruptsDisabled: true})
	if b.InterruptsEnabled() {
		t.Error("Expected interrupts disabled")
	}
	b.SetInterruptsEnabled(true)
	if !b.InterruptsEnabled() {
		t.Error("Expected interrupts enabled")
	}
}

func TestVirtualPLLLock(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{PLLLockPolls: 2})
	if b.AsyncClockLocked() {
		t.Error("PLL must not lock before it is enabled")
	}
	b.EnableAsyncClock()
	for i := 0; i < 2; i++ {
		if b.AsyncClockLocked() {
			t.Errorf("PLL must not lock at poll %d", i)
		}
	}
	if !b.AsyncClockLocked() {
		t.Error("PLL must lock")
	}
	if b.Register(atmega32u4.PLLCSR)&atmega32u4.PLLCSR_PLOCK == 0 {
		t.Error("Expected PLOCK to be set")
	}

	never := NewVirtualBridge(VirtualConfig{PLLLockPolls: -1})
	never.EnableAsyncClock()
	for i := 0; i < 100; i++ {
		if never.AsyncClockLocked() {
			t.Fatal("PLL must never lock")
		}
	}
}

func TestVirtualCompareLatch(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{})
	b.WriteHighByte(0xFF)
	if v := b.Register(atmega32u4.TC4H); v != 0x07 {
		t.Errorf("Expected TC4H masked to 0x07, got 0x%02x", v)
	}
	b.WriteLowByte(timer4.OCR4D, 0x12)
	if v := b.Compare(timer4.OCR4D); v != 0x712 {
		t.Errorf("Expected 0x712, got 0x%x", v)
	}
	b.WriteHighByte(0)
	b.WriteLowByte(timer4.OCR4A, 0x34)
	if v := b.Compare(timer4.OCR4A); v != 0x34 {
		t.Errorf("Expected 0x34, got 0x%x", v)
	}
	if v := b.Compare(timer4.OCR4D); v != 0x712 {
		t.Errorf("Expected OCR4D unchanged, got 0x%x", v)
	}
	if n := b.OpCount("WriteLowByte"); n != 2 {
		t.Errorf("Expected 2 low byte writes, got %d", n)
	}
	b.ResetOps()
	if len(b.Ops()) != 0 {
		t.Error("Expected no ops after reset")
	}
}

func TestVirtualFieldWrites(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{})
	b.SetPrescaler(timer4.PS16384)
	b.SetPrescaler(timer4.PS2)
	if v := b.Register(atmega32u4.TCCR4B); v != uint8(timer4.PS2) {
		t.Errorf("Expected CS4=%d, got %d", timer4.PS2, v)
	}
	b.SetPostscaler(timer4.APS1_5)
	if v := b.Register(atmega32u4.PLLFRQ); v != 0x20 {
		t.Errorf("Expected PLLFRQ 0x20, got 0x%02x", v)
	}
	b.EnableCompareOutput(timer4.Pin10)
	b.SetOutputInverted(timer4.Pin10, true)
	if v := b.Register(atmega32u4.TCCR4A); v != atmega32u4.TCCR4A_COM4B1|atmega32u4.TCCR4A_PWM4B|atmega32u4.TCCR4A_COM4B0 {
		t.Errorf("Unexpected TCCR4A 0x%02x", v)
	}
	b.ConfigureOutput(timer4.Pin10)
	if v := b.Register(atmega32u4.DDRB); v != 1<<6 {
		t.Errorf("Unexpected DDRB 0x%02x", v)
	}
	// Unknown pins are recorded without touching registers
	b.ConfigureOutput(5)
	if n := b.OpCount("ConfigureOutput"); n != 2 {
		t.Errorf("Expected 2 ConfigureOutput ops, got %d", n)
	}
}

func TestVirtualRecordedOpsAreBounded(t *testing.T) {
	b := NewVirtualBridge(VirtualConfig{MaxRecordedOps: 100})
	for i := 0; i < 10000; i++ {
		b.WriteHighByte(uint8(i>>8) & 0x07)
		b.WriteLowByte(timer4.OCR4A, uint8(i))
	}
	ops := b.Ops()
	if len(ops) > 100 {
		t.Errorf("Expected at most 100 operations, got %d", len(ops))
	}
	if len(ops) < 50 {
		t.Errorf("Expected the most recent operations to be kept, got %d", len(ops))
	}
	last := ops[len(ops)-1]
	if last.Name != "WriteLowByte" || last.Value != uint8(9999&0xff) {
		t.Errorf("Unexpected last operation %+v", last)
	}
	if v := b.Compare(timer4.OCR4A); v != 9999&0x7ff {
		t.Errorf("Expected compare %d, got %d", 9999&0x7ff, v)
	}

	def := NewVirtualBridge(VirtualConfig{})
	for i := 0; i < 3*DefaultMaxRecordedOps; i++ {
		def.WriteLowByte(timer4.OCR4D, uint8(i))
	}
	if n := len(def.Ops()); n > DefaultMaxRecordedOps {
		t.Errorf("Expected at most %d operations, got %d", DefaultMaxRecordedOps, n)
	}
}
