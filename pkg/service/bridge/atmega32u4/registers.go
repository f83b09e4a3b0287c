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

// Package atmega32u4 describes the registers of the ATmega32U4 that are
// involved in generating PWM signals with Timer4.
package atmega32u4

import (
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// Register is the data space address of an 8-bit I/O register.
type Register uint8

const (
	DDRB   Register = 0x24
	DDRC   Register = 0x27
	DDRD   Register = 0x2A
	PLLCSR Register = 0x49
	PLLFRQ Register = 0x52
	SREG   Register = 0x5F
	TC4H   Register = 0xBF
	TCCR4A Register = 0xC0
	TCCR4B Register = 0xC1
	TCCR4C Register = 0xC2
	TCCR4D Register = 0xC3
	TCCR4E Register = 0xC4
	OCR4A  Register = 0xCF
	OCR4B  Register = 0xD0
	OCR4C  Register = 0xD1
	OCR4D  Register = 0xD2
)

// Bits & fields
const (
	PLLCSR_PLOCK = 1 << 0
	PLLCSR_PLLE  = 1 << 1

	PLLFRQ_PLLTM     = 0x30
	PLLFRQ_PLLTM_Pos = 4

	SREG_I = 1 << 7

	TC4H_MASK = 0x07

	TCCR4A_PWM4B  = 1 << 0
	TCCR4A_PWM4A  = 1 << 1
	TCCR4A_COM4B0 = 1 << 4
	TCCR4A_COM4B1 = 1 << 5
	TCCR4A_COM4A0 = 1 << 6
	TCCR4A_COM4A1 = 1 << 7

	TCCR4B_CS4 = 0x0F

	TCCR4C_PWM4D  = 1 << 0
	TCCR4C_COM4D0 = 1 << 2
	TCCR4C_COM4D1 = 1 << 3

	TCCR4D_WGM40 = 1 << 0
	TCCR4D_WGM41 = 1 << 1

	TCCR4E_ENHC4 = 1 << 6
)

var registerNames = map[Register]string{
	DDRB:   "DDRB",
	DDRC:   "DDRC",
	DDRD:   "DDRD",
	PLLCSR: "PLLCSR",
	PLLFRQ: "PLLFRQ",
	SREG:   "SREG",
	TC4H:   "TC4H",
	TCCR4A: "TCCR4A",
	TCCR4B: "TCCR4B",
	TCCR4C: "TCCR4C",
	TCCR4D: "TCCR4D",
	TCCR4E: "TCCR4E",
	OCR4A:  "OCR4A",
	OCR4B:  "OCR4B",
	OCR4C:  "OCR4C",
	OCR4D:  "OCR4D",
}

// String returns the datasheet name of the register.
func (r Register) String() string {
	if name, found := registerNames[r]; found {
		return name
	}
	return "reg?"
}

// Output holds the bits that connect a pin to its Timer4 compare unit.
type Output struct {
	// Control register holding the compare output mode of the pin.
	Control Register
	// Enable bits: COM4x1 (clear on compare match) and PWM4x.
	Enable uint8
	// Invert bit: COM4x0.
	Invert uint8
	// Port data direction register of the pin.
	DDR Register
	// Bit of the pin in DDR.
	DDRBit uint8
}

// OutputOf returns the output bits of the given pin.
func OutputOf(pin timer4.Pin) (Output, bool) {
	switch pin {
	case timer4.Pin13: // PC7
		return Output{Control: TCCR4A, Enable: TCCR4A_COM4A1 | TCCR4A_PWM4A, Invert: TCCR4A_COM4A0, DDR: DDRC, DDRBit: 1 << 7}, true
	case timer4.Pin10: // PB6
		return Output{Control: TCCR4A, Enable: TCCR4A_COM4B1 | TCCR4A_PWM4B, Invert: TCCR4A_COM4B0, DDR: DDRB, DDRBit: 1 << 6}, true
	case timer4.Pin6: // PD7
		return Output{Control: TCCR4C, Enable: TCCR4C_COM4D1 | TCCR4C_PWM4D, Invert: TCCR4C_COM4D0, DDR: DDRD, DDRBit: 1 << 7}, true
	default:
		return Output{}, false
	}
}

// CompareRegisterOf returns the register address of a compare register.
func CompareRegisterOf(r timer4.CompareRegister) (Register, bool) {
	switch r {
	case timer4.OCR4A:
		return OCR4A, true
	case timer4.OCR4B:
		return OCR4B, true
	case timer4.OCR4C:
		return OCR4C, true
	case timer4.OCR4D:
		return OCR4D, true
	default:
		return 0, false
	}
}
