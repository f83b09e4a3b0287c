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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pin is the (Arduino Leonardo) number of a pin driven by Timer4.
type Pin uint8

const (
	// Pin13 is driven by output compare unit A (OC4A, PC7).
	Pin13 Pin = 13
	// Pin10 is driven by output compare unit B (OC4B, PB6).
	Pin10 Pin = 10
	// Pin6 is driven by output compare unit D (OC4D, PD7).
	Pin6 Pin = 6

	channelCount = 3
)

// CompareRegister identifies one of the 11-bit output compare registers of Timer4.
type CompareRegister uint8

const (
	OCR4A CompareRegister = iota + 1
	OCR4B
	// OCR4C holds the TOP value of the counter.
	OCR4C
	OCR4D
)

// String returns the register name.
func (r CompareRegister) String() string {
	switch r {
	case OCR4A:
		return "OCR4A"
	case OCR4B:
		return "OCR4B"
	case OCR4C:
		return "OCR4C"
	case OCR4D:
		return "OCR4D"
	default:
		return "OCR4?(" + strconv.Itoa(int(r)) + ")"
	}
}

// Pins returns all pins that can be driven by Timer4.
func Pins() []Pin {
	return []Pin{Pin13, Pin10, Pin6}
}

// Validate returns ErrInvalidPin unless p is driven by Timer4.
func (p Pin) Validate() error {
	if p.index() < 0 {
		return errors.Wrapf(ErrInvalidPin, "pin %d is not driven by timer4", uint8(p))
	}
	return nil
}

// CompareRegister returns the compare register that sets the duty cycle of the pin.
func (p Pin) CompareRegister() CompareRegister {
	switch p {
	case Pin13:
		return OCR4A
	case Pin10:
		return OCR4B
	case Pin6:
		return OCR4D
	default:
		return 0
	}
}

// String returns "Pin<N>".
func (p Pin) String() string {
	return "Pin" + strconv.Itoa(int(p))
}

// index returns the channel slot of the pin, or -1 for an invalid pin.
func (p Pin) index() int {
	switch p {
	case Pin13:
		return 0
	case Pin10:
		return 1
	case Pin6:
		return 2
	default:
		return -1
	}
}

// ParsePin parses a pin number like "13", "pin13" or "D13".
func ParsePin(s string) (Pin, error) {
	x := strings.ToLower(strings.TrimSpace(s))
	x = strings.TrimPrefix(x, "pin")
	x = strings.TrimPrefix(x, "d")
	n, err := strconv.Atoi(x)
	if err != nil || n < 0 || n > 255 {
		return 0, errors.Wrapf(ErrInvalidPin, "cannot parse '%s'", s)
	}
	p := Pin(n)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}
