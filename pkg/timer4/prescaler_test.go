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
	"math"
	"testing"
)

func TestPrescalerRatio(t *testing.T) {
	expected := uint32(1)
	for p := PS1; p <= PS16384; p++ {
		if r := p.Ratio(); r != expected {
			t.Errorf("Expected ratio %d for %d, got %d", expected, p, r)
		}
		if x, err := PrescalerFromRatio(expected); err != nil || x != p {
			t.Errorf("Expected %s from ratio %d, got %s (%v)", p, expected, x, err)
		}
		expected *= 2
	}
	if PS8.String() != "PS_8" {
		t.Errorf("Unexpected string '%s'", PS8.String())
	}
	for _, ratio := range []uint32{0, 3, 100, 32768} {
		if _, err := PrescalerFromRatio(ratio); !IsInvalidPrescaler(err) {
			t.Errorf("Expected invalid prescaler for ratio %d, got %v", ratio, err)
		}
	}
	if Prescaler(0).Ratio() != 0 || Prescaler(16).Ratio() != 0 {
		t.Error("Expected ratio 0 for invalid prescaler")
	}
}

func TestParsePostscaler(t *testing.T) {
	tests := map[string]Postscaler{
		"1":       APS1,
		"1.5":     APS1_5,
		"2":       APS2,
		"APS_1":   APS1,
		"APS_1_5": APS1_5,
		"aps_2":   APS2,
		" 2 ":     APS2,
	}
	for input, expected := range tests {
		p, err := ParsePostscaler(input)
		if err != nil {
			t.Errorf("ParsePostscaler('%s') failed: %v", input, err)
		} else if p != expected {
			t.Errorf("Expected %s for '%s', got %s", expected, input, p)
		}
		if q, err := ParsePostscaler(expected.String()); err != nil || q != expected {
			t.Errorf("Expected %s to parse its own string, got %s (%v)", expected, q, err)
		}
	}
	for _, input := range []string{"", "0", "3", "1.25", "APS_"} {
		if _, err := ParsePostscaler(input); !IsInvalidPostscaler(err) {
			t.Errorf("Expected invalid postscaler for '%s', got %v", input, err)
		}
	}
}

func TestParsePin(t *testing.T) {
	tests := map[string]Pin{
		"13":    Pin13,
		"pin10": Pin10,
		"Pin6":  Pin6,
		"D13":   Pin13,
		" 6":    Pin6,
	}
	for input, expected := range tests {
		p, err := ParsePin(input)
		if err != nil {
			t.Errorf("ParsePin('%s') failed: %v", input, err)
		} else if p != expected {
			t.Errorf("Expected %s for '%s', got %s", expected, input, p)
		}
	}
	for _, input := range []string{"", "5", "11", "pin", "-1", "300"} {
		if _, err := ParsePin(input); !IsInvalidPin(err) {
			t.Errorf("Expected invalid pin for '%s', got %v", input, err)
		}
	}
	if Pin13.CompareRegister() != OCR4A || Pin10.CompareRegister() != OCR4B || Pin6.CompareRegister() != OCR4D {
		t.Error("Unexpected compare register mapping")
	}
}

func TestFormulas(t *testing.T) {
	if d := DutyPercent(250, 1000); d != 25 {
		t.Errorf("Expected 25%%, got %v", d)
	}
	if d := DutyPercent(10, 0); d != 0 {
		t.Errorf("Expected 0%% for zero top, got %v", d)
	}
	if r := ResolutionPercent(1000); math.Abs(r-0.1) > 1e-9 {
		t.Errorf("Expected 0.1%%, got %v", r)
	}
	if f := Frequency(16e6, PS8, 0, 1000); f != 2000 {
		t.Errorf("Expected 2kHz, got %v", f)
	}
	if f := Frequency(48e6, PS1, APS2, 1200); f != 20000 {
		t.Errorf("Expected 20kHz, got %v", f)
	}
	if f := Frequency(48e6, PS1, APS1_5, 2000); f != 16000 {
		t.Errorf("Expected 16kHz, got %v", f)
	}
	if f := Frequency(16e6, 0, 0, 1000); f != 0 {
		t.Errorf("Expected 0 for invalid prescaler, got %v", f)
	}
}

func TestConfigTruncated(t *testing.T) {
	c := Config{Prescaler: 0x1F, Postscaler: 0x07, TopLimit: 0xFFFF, LockTimeout: -1}.truncated()
	if c.Prescaler != PS16384 || c.Postscaler != APS2 || c.TopLimit != MaxTopLimit || c.LockTimeout != 0 {
		t.Errorf("Unexpected truncation result %+v", c)
	}
	if storedTopLimit(ClockAsynchronous, 2047) != 1023 || storedTopLimit(ClockInternal, 2047) != 2047 {
		t.Error("Unexpected stored top limit")
	}
}
