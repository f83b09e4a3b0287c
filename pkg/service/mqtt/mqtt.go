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

// Package mqtt connects the PWM service to an MQTT broker.
//
// Commands are received on:
//
//	<prefix>/pin<N>/set     payload: duty value (decimal)
//	<prefix>/pin<N>/begin   payload: invert (true|false)
//
// The state of a pin is published (retained) on <prefix>/pin<N>/state
// every time its duty value changes.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

const (
	mqttPublishTimeout    = time.Millisecond * 200
	mqttDisconnectQuiesce = 250

	commandSet   = "set"
	commandBegin = "begin"
)

// Config of the MQTT bridge.
type Config struct {
	// BrokerAddress is the host:port of the MQTT broker.
	BrokerAddress string
	// ClientID of the MQTT connection.
	ClientID string
	// TopicPrefix of all topics.
	TopicPrefix string
}

// Dependencies of the MQTT bridge.
type Dependencies struct {
	Logger  zerolog.Logger
	Service service.Service
}

// Bridge forwards MQTT commands to the service and publishes pin states.
type Bridge struct {
	log         zerolog.Logger
	svc         service.Service
	conf        Config
	topicPrefix string
}

// New creates a new MQTT bridge.
func New(conf Config, deps Dependencies) (*Bridge, error) {
	if conf.BrokerAddress == "" {
		return nil, errors.New("broker address is required")
	}
	if deps.Service == nil {
		return nil, errors.New("service is required")
	}
	if conf.ClientID == "" {
		conf.ClientID = "fastpwm"
	}
	return &Bridge{
		log:         deps.Logger.With().Str("component", "mqtt").Logger(),
		svc:         deps.Service,
		conf:        conf,
		topicPrefix: strings.TrimSuffix(conf.TopicPrefix, "/") + "/",
	}, nil
}

// Run the bridge until the given context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + b.conf.BrokerAddress).
		SetClientID(b.conf.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})

	client := mqttapi.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to connect to mqtt broker '%s'", b.conf.BrokerAddress)
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	filters := map[string]byte{
		b.topicPrefix + "+/" + commandSet:   0,
		b.topicPrefix + "+/" + commandBegin: 0,
	}
	onMessage := func(c mqttapi.Client, msg mqttapi.Message) {
		if err := b.handleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
			b.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Failed to handle MQTT message")
		}
	}
	if token := client.SubscribeMultiple(filters, onMessage); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "failed to subscribe")
	}

	publish := func(pin timer4.Pin) {
		// Events may arrive out of order, so publish the current state.
		cs, err := b.svc.Channel(pin)
		if err != nil {
			return
		}
		topic := b.stateTopic(pin)
		payload, err := json.Marshal(cs)
		if err != nil {
			b.log.Error().Err(err).Msg("Failed to encode state")
			return
		}
		token := client.Publish(topic, 0, true, payload)
		if !token.WaitTimeout(mqttPublishTimeout) {
			b.log.Error().Err(token.Error()).
				Str("topic", topic).
				Msg("failed to deliver MQTT state in time")
		}
	}
	cancel := b.svc.RegisterDutyChangedReceiver(func(e service.DutyChanged) {
		publish(e.Pin)
	})
	defer cancel()

	// Publish initial state
	for _, pin := range timer4.Pins() {
		publish(pin)
	}
	b.log.Info().Str("broker", b.conf.BrokerAddress).Str("prefix", b.topicPrefix).Msg("MQTT bridge running")

	<-ctx.Done()
	return nil
}

// handleMessage processes a single command message.
func (b *Bridge) handleMessage(ctx context.Context, topic string, payload []byte) error {
	pin, command, err := b.parseTopic(topic)
	if err != nil {
		return err
	}
	value := strings.TrimSpace(string(payload))
	switch command {
	case commandSet:
		v, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return errors.Wrapf(err, "invalid duty value '%s'", value)
		}
		return b.svc.Set(ctx, pin, uint16(v))
	case commandBegin:
		invert := false
		if value != "" {
			invert, err = strconv.ParseBool(value)
			if err != nil {
				return errors.Wrapf(err, "invalid invert value '%s'", value)
			}
		}
		return b.svc.Begin(ctx, pin, invert)
	default:
		return errors.Errorf("unknown command '%s'", command)
	}
}

// parseTopic splits "<prefix>/pin<N>/<command>" into its pin & command.
func (b *Bridge) parseTopic(topic string) (timer4.Pin, string, error) {
	if !strings.HasPrefix(topic, b.topicPrefix) {
		return 0, "", errors.Errorf("topic '%s' outside prefix '%s'", topic, b.topicPrefix)
	}
	parts := strings.Split(strings.TrimPrefix(topic, b.topicPrefix), "/")
	if len(parts) != 2 {
		return 0, "", errors.Errorf("invalid topic '%s'", topic)
	}
	pin, err := timer4.ParsePin(parts[0])
	if err != nil {
		return 0, "", err
	}
	return pin, parts[1], nil
}

// stateTopic returns the topic the state of the given pin is published on.
func (b *Bridge) stateTopic(pin timer4.Pin) string {
	return fmt.Sprintf("%spin%d/state", b.topicPrefix, pin)
}
