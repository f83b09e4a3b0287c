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

// DutyPercent returns the duty cycle (in %) of a compare value.
func DutyPercent(value, top uint16) float64 {
	if top == 0 {
		return 0
	}
	return 100 * float64(value) / float64(top)
}

// ResolutionPercent returns the duty cycle step (in %) of one compare unit.
func ResolutionPercent(top uint16) float64 {
	if top == 0 {
		return 0
	}
	return 100 / float64(top)
}

// Frequency returns the PWM frequency (in Hz) for a clock source of sourceHz.
// Use a zero postscaler for the system clock.
func Frequency(sourceHz float64, prescaler Prescaler, postscaler Postscaler, top uint16) float64 {
	div := float64(prescaler.Ratio()) * float64(top)
	if postscaler != 0 {
		div *= postscaler.Ratio()
	}
	if div == 0 {
		return 0
	}
	return sourceHz / div
}
