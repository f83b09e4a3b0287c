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

// Prescaler is the value of the CS43:40 clock select field of Timer4.
// Selector N divides the timer clock by 2^(N-1).
type Prescaler uint8

const (
	PS1     Prescaler = 1
	PS2     Prescaler = 2
	PS4     Prescaler = 3
	PS8     Prescaler = 4
	PS16    Prescaler = 5
	PS32    Prescaler = 6
	PS64    Prescaler = 7
	PS128   Prescaler = 8
	PS256   Prescaler = 9
	PS512   Prescaler = 10
	PS1024  Prescaler = 11
	PS2048  Prescaler = 12
	PS4096  Prescaler = 13
	PS8192  Prescaler = 14
	PS16384 Prescaler = 15

	// prescalerFieldMask is the width of the CS43:40 field.
	prescalerFieldMask = 0x0F
)

// Validate returns ErrInvalidPrescaler unless p is one of PS1...PS16384.
func (p Prescaler) Validate() error {
	if p < PS1 || p > PS16384 {
		return errors.Wrapf(ErrInvalidPrescaler, "selector %d not in 1..15", uint8(p))
	}
	return nil
}

// Ratio returns the clock division ratio, or 0 for an invalid prescaler.
func (p Prescaler) Ratio() uint32 {
	if p.Validate() != nil {
		return 0
	}
	return 1 << (uint32(p) - 1)
}

// String returns the prescaler as "PS_<ratio>".
func (p Prescaler) String() string {
	if p.Validate() != nil {
		return "PS_invalid(" + strconv.Itoa(int(p)) + ")"
	}
	return "PS_" + strconv.FormatUint(uint64(p.Ratio()), 10)
}

// PrescalerFromRatio returns the prescaler dividing the clock by the given ratio.
func PrescalerFromRatio(ratio uint32) (Prescaler, error) {
	for p := PS1; p <= PS16384; p++ {
		if p.Ratio() == ratio {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPrescaler, "ratio %d is not a power of 2 in 1..16384", ratio)
}

// Postscaler is the value of the PLLTM1:0 field that divides the PLL
// output before it is fed to the high speed timer.
// The zero value means no postscaler, i.e. Timer4 runs from the system clock.
type Postscaler uint8

const (
	APS1   Postscaler = 1
	APS1_5 Postscaler = 2
	APS2   Postscaler = 3

	// postscalerFieldMask is the width of the PLLTM1:0 field.
	postscalerFieldMask = 0x03
)

// Validate returns ErrInvalidPostscaler unless p is one of APS1, APS1_5, APS2.
func (p Postscaler) Validate() error {
	if p < APS1 || p > APS2 {
		return errors.Wrapf(ErrInvalidPostscaler, "selector %d not in 1..3", uint8(p))
	}
	return nil
}

// Ratio returns the division ratio, or 0 for an invalid postscaler.
func (p Postscaler) Ratio() float64 {
	switch p {
	case APS1:
		return 1
	case APS1_5:
		return 1.5
	case APS2:
		return 2
	default:
		return 0
	}
}

// String returns the postscaler as "APS_<ratio>".
func (p Postscaler) String() string {
	switch p {
	case APS1:
		return "APS_1"
	case APS1_5:
		return "APS_1_5"
	case APS2:
		return "APS_2"
	default:
		return "APS_invalid(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePostscaler parses a postscaler ratio ("1", "1.5", "2").
// The "APS_" prefixed form returned by String is accepted as well.
func ParsePostscaler(s string) (Postscaler, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "APS_")
	switch strings.Replace(s, "_", ".", 1) {
	case "1":
		return APS1, nil
	case "1.5":
		return APS1_5, nil
	case "2":
		return APS2, nil
	default:
		return 0, errors.Wrapf(ErrInvalidPostscaler, "cannot parse '%s'", s)
	}
}
