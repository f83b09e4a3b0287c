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
	"github.com/binkynet/FastPWM/pkg/metrics"
)

const (
	subSystem = "service"
)

var (
	// Total number of times the timer has been configured
	configurationsTotal = metrics.MustRegisterCounter(subSystem,
		"timer_configurations_total",
		"Total number of times the timer has been configured")
	// Total number of PLL lock polls that did not report lock
	clockLockPollsTotal = metrics.MustRegisterCounter(subSystem,
		"clock_lock_polls_total",
		"Total number of PLL lock polls that did not report lock")
	// Total number of Begin calls per pin
	beginTotal = metrics.MustRegisterCounterVec(subSystem,
		"begin_total",
		"Total number of Begin calls per pin",
		"pin")
	// Total number of failed Begin calls per pin
	beginFailuresTotal = metrics.MustRegisterCounterVec(subSystem,
		"begin_failures_total",
		"Total number of failed Begin calls per pin",
		"pin")
	// Total number of Set calls per pin
	setTotal = metrics.MustRegisterCounterVec(subSystem,
		"set_total",
		"Total number of Set calls per pin",
		"pin")
	// Total number of rejected Set calls per pin
	setRejectedTotal = metrics.MustRegisterCounterVec(subSystem,
		"set_rejected_total",
		"Total number of rejected Set calls per pin",
		"pin")
	// Current duty value per pin
	dutyValue = metrics.MustRegisterGaugeVec(subSystem,
		"duty_value",
		"Current duty value per pin",
		"pin")
	// Total number of sweep steps
	sweepStepsTotal = metrics.MustRegisterCounter(subSystem,
		"sweep_steps_total",
		"Total number of sweep steps")
)
