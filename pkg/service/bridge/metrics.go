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
	"github.com/binkynet/FastPWM/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of register writes per register
	registerWritesTotal = metrics.MustRegisterCounterVec(subSystem,
		"register_writes_total",
		"Total number of register writes per register",
		"register")
	// Total number of PLL lock polls
	pllLockPollsTotal = metrics.MustRegisterCounter(subSystem,
		"pll_lock_polls_total",
		"Total number of times the PLL lock bit is polled")
)
