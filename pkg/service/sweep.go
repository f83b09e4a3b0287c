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
	"context"
	"time"

	"github.com/binkynet/FastPWM/pkg/service/util"
)

const (
	// sweepSteps is the number of steps of a full 0 to TOP to 0 cycle.
	sweepSteps      = 200
	minSweepStepGap = time.Millisecond * 5
)

// RunSweep moves the duty of all begun pins from 0 to TOP and back,
// once every period, until the given context is canceled.
func (s *service) RunSweep(ctx context.Context, period time.Duration) error {
	interval := period / sweepSteps
	if interval < minSweepStepGap {
		interval = minSweepStepGap
	}
	log := s.log.With().Str("sweep", period.String()).Logger()
	log.Info().Msg("Starting sweep")
	step := 0
	return util.UntilCanceled(ctx, log, "sweep", interval, func() error {
		if err := s.sweepStep(step); err != nil {
			return err
		}
		step = (step + 1) % sweepSteps
		return nil
	})
}

// sweepStep writes the duty of the given step to all begun pins.
func (s *service) sweepStep(step int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return maskAny(ErrClosed)
	}
	value := sweepValue(step, s.timer.TopLimit())
	for _, ch := range s.timer.Channels() {
		if !ch.Enabled() {
			continue
		}
		if err := s.set(ch.Pin(), value); err != nil {
			return maskAny(err)
		}
	}
	sweepStepsTotal.Inc()
	return nil
}

// sweepValue returns the triangle wave value of the given step.
func sweepValue(step int, top uint16) uint16 {
	half := sweepSteps / 2
	pos := step % sweepSteps
	if pos > half {
		pos = sweepSteps - pos
	}
	return uint16(uint32(top) * uint32(pos) / uint32(half))
}
