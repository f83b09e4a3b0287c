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
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// DutyChanged is published every time the duty value of a pin is written.
type DutyChanged struct {
	Pin         timer4.Pin
	Value       uint16
	DutyPercent float64
}

// ChannelBegun is published every time a pin is begun.
type ChannelBegun struct {
	Pin      timer4.Pin
	Inverted bool
}
