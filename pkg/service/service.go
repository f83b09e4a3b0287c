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
	"strconv"
	"sync"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service/bridge"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// Service serializes access to a single Timer4 for multiple concurrent
// callers (REST, MQTT, terminal UI, sweep).
type Service interface {
	// Begin connects the given pin to the timer.
	Begin(ctx context.Context, pin timer4.Pin, invert bool) error
	// Set the duty value of the given pin.
	Set(ctx context.Context, pin timer4.Pin, value uint16) error
	// Get the last duty value set on the given pin.
	Get(pin timer4.Pin) (uint16, error)
	// Channel returns the status of a single pin.
	Channel(pin timer4.Pin) (ChannelStatus, error)
	// Status returns the status of the timer and all its pins.
	Status() Status
	// RunSweep moves the duty of all begun pins from 0 to TOP and back,
	// once every period, until the given context is canceled.
	RunSweep(ctx context.Context, period time.Duration) error

	// RegisterDutyChangedReceiver calls the given callback for every duty change.
	RegisterDutyChangedReceiver(cb func(DutyChanged)) context.CancelFunc
	// RegisterChannelBegunReceiver calls the given callback every time a pin is begun.
	RegisterChannelBegunReceiver(cb func(ChannelBegun)) context.CancelFunc

	// Close the service and its bridge.
	Close() error
}

// Config of the service.
type Config struct {
	// Timer configuration
	Timer timer4.Config
	// SourceFrequency is the frequency (in Hz) of the clock driving Timer4.
	SourceFrequency float64
	// StrictValues rejects duty values above the TOP limit.
	StrictValues bool
}

// Dependencies of the service.
type Dependencies struct {
	Logger zerolog.Logger
	Bridge bridge.API
}

type service struct {
	Config
	log    zerolog.Logger
	bridge bridge.API
	events *pubsub.PubSub

	mutex  sync.Mutex
	timer  *timer4.Timer
	closed bool

	receivers struct {
		mutex  sync.Mutex
		lastID int
		duty   map[int]func(DutyChanged)
		begun  map[int]func(ChannelBegun)
	}
}

// NewService creates a Service on the Timer4 of the given bridge.
func NewService(conf Config, deps Dependencies) (Service, error) {
	log := deps.Logger.With().Str("component", "service").Logger()
	if deps.Bridge == nil {
		return nil, errors.New("bridge is required")
	}
	hw, irq, err := deps.Bridge.Timer4()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open timer4")
	}
	t, err := timer4.NewFromConfig(conf.Timer, timer4.Dependencies{
		Logger:     deps.Logger,
		Peripheral: hw,
		Interrupts: irq,
	})
	if err != nil {
		return nil, maskAny(err)
	}
	log.Info().
		Str("clock", t.ClockSource().String()).
		Str("prescaler", t.Prescaler().String()).
		Uint16("top", t.TopLimit()).
		Msg("Created timer")
	s := &service{
		Config: conf,
		log:    log,
		bridge: deps.Bridge,
		events: pubsub.New(),
		timer:  t,
	}
	s.receivers.duty = make(map[int]func(DutyChanged))
	s.receivers.begun = make(map[int]func(ChannelBegun))
	// A single subscriber per event type; pubsub cannot tell closures
	// of the same literal apart when leaving.
	s.events.Sub(s.dispatchDutyChanged)
	s.events.Sub(s.dispatchChannelBegun)
	return s, nil
}

// Begin connects the given pin to the timer.
func (s *service) Begin(ctx context.Context, pin timer4.Pin, invert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return maskAny(ErrClosed)
	}
	ch, err := s.timer.Channel(pin)
	if err != nil {
		return maskAny(err)
	}
	label := labelOf(pin)
	beginTotal.WithLabelValues(label).Inc()
	wasConfigured := s.timer.Configured()
	polls := s.timer.ClockLockPolls()
	err = ch.Begin(invert)
	clockLockPollsTotal.Add(float64(s.timer.ClockLockPolls() - polls))
	if err != nil {
		beginFailuresTotal.WithLabelValues(label).Inc()
		s.log.Warn().Err(err).Str("pin", pin.String()).Msg("Begin failed")
		return maskAny(err)
	}
	if !wasConfigured {
		configurationsTotal.Inc()
	}
	dutyValue.WithLabelValues(label).Set(0)
	s.events.Pub(ChannelBegun{Pin: pin, Inverted: invert})
	s.events.Pub(DutyChanged{Pin: pin, Value: 0, DutyPercent: 0})
	return nil
}

// Set the duty value of the given pin.
func (s *service) Set(ctx context.Context, pin timer4.Pin, value uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return maskAny(ErrClosed)
	}
	return s.set(pin, value)
}

// set writes the duty value. Expects the mutex to be held.
func (s *service) set(pin timer4.Pin, value uint16) error {
	ch, err := s.timer.Channel(pin)
	if err != nil {
		return maskAny(err)
	}
	label := labelOf(pin)
	setTotal.WithLabelValues(label).Inc()
	if top := s.timer.TopLimit(); s.StrictValues && value > top {
		setRejectedTotal.WithLabelValues(label).Inc()
		return errors.Wrapf(ErrValueOutOfRange, "%d exceeds top limit %d", value, top)
	}
	ch.Write(value)
	dutyValue.WithLabelValues(label).Set(float64(value))
	s.events.Pub(DutyChanged{Pin: pin, Value: value, DutyPercent: ch.DutyPercent()})
	return nil
}

// Get the last duty value set on the given pin.
func (s *service) Get(pin timer4.Pin) (uint16, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, err := s.timer.Channel(pin)
	if err != nil {
		return 0, maskAny(err)
	}
	return ch.Value(), nil
}

// Channel returns the status of a single pin.
func (s *service) Channel(pin timer4.Pin) (ChannelStatus, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, err := s.timer.Channel(pin)
	if err != nil {
		return ChannelStatus{}, maskAny(err)
	}
	return channelStatusOf(ch), nil
}

// RegisterDutyChangedReceiver calls the given callback for every duty change.
// Callbacks run in their own goroutine, so the order of delivery is not guaranteed.
func (s *service) RegisterDutyChangedReceiver(cb func(DutyChanged)) context.CancelFunc {
	s.receivers.mutex.Lock()
	defer s.receivers.mutex.Unlock()
	s.receivers.lastID++
	id := s.receivers.lastID
	s.receivers.duty[id] = cb
	return func() {
		s.receivers.mutex.Lock()
		defer s.receivers.mutex.Unlock()
		delete(s.receivers.duty, id)
	}
}

// RegisterChannelBegunReceiver calls the given callback every time a pin is begun.
func (s *service) RegisterChannelBegunReceiver(cb func(ChannelBegun)) context.CancelFunc {
	s.receivers.mutex.Lock()
	defer s.receivers.mutex.Unlock()
	s.receivers.lastID++
	id := s.receivers.lastID
	s.receivers.begun[id] = cb
	return func() {
		s.receivers.mutex.Lock()
		defer s.receivers.mutex.Unlock()
		delete(s.receivers.begun, id)
	}
}

func (s *service) dispatchDutyChanged(x DutyChanged) {
	s.receivers.mutex.Lock()
	cbs := make([]func(DutyChanged), 0, len(s.receivers.duty))
	for _, cb := range s.receivers.duty {
		cbs = append(cbs, cb)
	}
	s.receivers.mutex.Unlock()
	for _, cb := range cbs {
		cb(x)
	}
}

func (s *service) dispatchChannelBegun(x ChannelBegun) {
	s.receivers.mutex.Lock()
	cbs := make([]func(ChannelBegun), 0, len(s.receivers.begun))
	for _, cb := range s.receivers.begun {
		cbs = append(cbs, cb)
	}
	s.receivers.mutex.Unlock()
	for _, cb := range cbs {
		cb(x)
	}
}

// Close the service and its bridge.
// The timer keeps its last duty values.
func (s *service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	ae := &aerr.AggregateError{}
	ae.Add(s.bridge.Close())
	s.events.Close()
	return ae.AsError()
}

func labelOf(pin timer4.Pin) string {
	return strconv.Itoa(int(pin))
}
