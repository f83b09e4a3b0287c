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

package mqtt

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/service/bridge"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

func newTestBridge(t *testing.T) (*Bridge, service.Service) {
	svc, err := service.NewService(service.Config{
		Timer: timer4.Config{Prescaler: timer4.PS1, TopLimit: 1000},
	}, service.Dependencies{
		Logger: zerolog.Nop(),
		Bridge: bridge.NewVirtualBridge(bridge.VirtualConfig{}),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	b, err := New(Config{BrokerAddress: "localhost:1883", TopicPrefix: "leonardo/"}, Dependencies{
		Logger:  zerolog.Nop(),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b, svc
}

func TestNewRequiresBroker(t *testing.T) {
	if _, err := New(Config{}, Dependencies{}); err == nil {
		t.Error("Expected error")
	}
}

func TestParseTopic(t *testing.T) {
	b, svc := newTestBridge(t)
	defer svc.Close()

	pin, cmd, err := b.parseTopic("leonardo/pin10/set")
	if err != nil {
		t.Fatalf("parseTopic failed: %v", err)
	}
	if pin != timer4.Pin10 || cmd != "set" {
		t.Errorf("Unexpected result %s %s", pin, cmd)
	}
	for _, topic := range []string{"other/pin10/set", "leonardo/pin10", "leonardo/pin11/set", "leonardo/pin10/set/x"} {
		if _, _, err := b.parseTopic(topic); err == nil {
			t.Errorf("Expected error for '%s'", topic)
		}
	}
	if topic := b.stateTopic(timer4.Pin6); topic != "leonardo/pin6/state" {
		t.Errorf("Unexpected state topic '%s'", topic)
	}
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	b, svc := newTestBridge(t)
	defer svc.Close()

	if err := b.handleMessage(ctx, "leonardo/pin13/begin", []byte("true")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := b.handleMessage(ctx, "leonardo/pin13/set", []byte(" 321\n")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	cs, err := svc.Channel(timer4.Pin13)
	if err != nil {
		t.Fatalf("Channel failed: %v", err)
	}
	if !cs.Enabled || !cs.Inverted || cs.Value != 321 {
		t.Errorf("Unexpected channel status %+v", cs)
	}
	if err := b.handleMessage(ctx, "leonardo/pin6/begin", nil); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if cs, _ := svc.Channel(timer4.Pin6); !cs.Enabled || cs.Inverted {
		t.Errorf("Unexpected channel status %+v", cs)
	}

	for topic, payload := range map[string]string{
		"leonardo/pin13/set":   "abc",
		"leonardo/pin13/begin": "maybe",
		"leonardo/pin13/reset": "1",
		"leonardo/pin13/set/":  "1",
	} {
		if err := b.handleMessage(ctx, topic, []byte(payload)); err == nil {
			t.Errorf("Expected error for %s=%s", topic, payload)
		}
	}
	if err := b.handleMessage(ctx, "leonardo/pin13/set", []byte("70000")); err == nil {
		t.Error("Expected error for value beyond 16 bits")
	}
}
