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

package service

import (
	"github.com/pkg/errors"
)

var (
	// ErrValueOutOfRange is returned by Set when StrictValues is enabled and
	// the value exceeds the TOP limit of the timer.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrClosed is returned after the service has been closed.
	ErrClosed = errors.New("service closed")

	maskAny = errors.WithStack
)

// IsValueOutOfRange returns true if the cause of the given error is ErrValueOutOfRange.
func IsValueOutOfRange(err error) bool {
	return errors.Cause(err) == ErrValueOutOfRange
}

// IsClosed returns true if the cause of the given error is ErrClosed.
func IsClosed(err error) bool {
	return errors.Cause(err) == ErrClosed
}
