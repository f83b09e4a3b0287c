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
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// API of the bridge, the hardware layer that gives access to the
// Timer4 peripheral of the microcontroller.
type API interface {
	// Timer4 returns the Timer4 peripheral and the global interrupt flag
	// that guards its 11-bit compare register writes.
	Timer4() (timer4.Peripheral, timer4.Interrupts, error)
	// Close the bridge.
	Close() error
}
