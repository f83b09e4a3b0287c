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

package atmega32u4

import (
	"testing"

	"github.com/binkynet/FastPWM/pkg/timer4"
)

func TestOutputOf(t *testing.T) {
	for _, pin := range timer4.Pins() {
		out, found := OutputOf(pin)
		if !found {
			t.Fatalf("Expected output for %s", pin)
		}
		if out.Enable == 0 || out.Invert == 0 || out.DDRBit == 0 {
			t.Errorf("Incomplete output for %s: %+v", pin, out)
		}
		if out.Enable&out.Invert != 0 {
			t.Errorf("Enable & invert bits overlap for %s", pin)
		}
	}
	if _, found := OutputOf(5); found {
		t.Error("Expected no output for pin 5")
	}
}

func TestCompareRegisterOf(t *testing.T) {
	expected := map[timer4.CompareRegister]Register{
		timer4.OCR4A: OCR4A,
		timer4.OCR4B: OCR4B,
		timer4.OCR4C: OCR4C,
		timer4.OCR4D: OCR4D,
	}
	for r, addr := range expected {
		if x, found := CompareRegisterOf(r); !found || x != addr {
			t.Errorf("Expected %s for %s, got %s", addr, r, x)
		}
		if addr.String() != r.String() {
			t.Errorf("Expected matching names, got %s and %s", addr, r)
		}
	}
	if _, found := CompareRegisterOf(0); found {
		t.Error("Expected no register for 0")
	}
	if Register(0x00).String() != "reg?" {
		t.Error("Expected unknown register name")
	}
}
