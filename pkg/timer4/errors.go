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
	"github.com/pkg/errors"
)

var (
	// ErrInvalidPrescaler is returned when a prescaler is not one of PS1...PS16384.
	ErrInvalidPrescaler = errors.New("invalid prescaler")
	// ErrInvalidPostscaler is returned when an asynchronous postscaler is not one of APS1, APS1_5, APS2.
	ErrInvalidPostscaler = errors.New("invalid postscaler")
	// ErrTopLimitOutOfRange is returned when the TOP limit does not fit the 11-bit counter.
	ErrTopLimitOutOfRange = errors.New("top limit out of range")
	// ErrInvalidPin is returned for a pin that is not connected to Timer4.
	ErrInvalidPin = errors.New("invalid pin")
	// ErrClockLockTimeout is returned when the asynchronous clock did not lock
	// within the configured LockTimeout.
	ErrClockLockTimeout = errors.New("asynchronous clock lock timeout")
	// ErrPeripheralBound is returned when the peripheral is already owned by another Timer.
	ErrPeripheralBound = errors.New("peripheral already bound")

	maskAny = errors.WithStack
)

// IsInvalidPrescaler returns true if the cause of the given error is ErrInvalidPrescaler.
func IsInvalidPrescaler(err error) bool {
	return errors.Cause(err) == ErrInvalidPrescaler
}

// IsInvalidPostscaler returns true if the cause of the given error is ErrInvalidPostscaler.
func IsInvalidPostscaler(err error) bool {
	return errors.Cause(err) == ErrInvalidPostscaler
}

// IsTopLimitOutOfRange returns true if the cause of the given error is ErrTopLimitOutOfRange.
func IsTopLimitOutOfRange(err error) bool {
	return errors.Cause(err) == ErrTopLimitOutOfRange
}

// IsInvalidPin returns true if the cause of the given error is ErrInvalidPin.
func IsInvalidPin(err error) bool {
	return errors.Cause(err) == ErrInvalidPin
}

// IsClockLockTimeout returns true if the cause of the given error is ErrClockLockTimeout.
func IsClockLockTimeout(err error) bool {
	return errors.Cause(err) == ErrClockLockTimeout
}

// IsPeripheralBound returns true if the cause of the given error is ErrPeripheralBound.
func IsPeripheralBound(err error) bool {
	return errors.Cause(err) == ErrPeripheralBound
}
