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

package util

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSpinLock(t *testing.T) {
	var l SpinLock
	if !l.TryLock() {
		t.Fatal("Expected TryLock to succeed")
	}
	if l.TryLock() {
		t.Error("Expected TryLock to fail while locked")
	}
	l.Unlock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	if counter != 8000 {
		t.Errorf("Expected 8000, got %d", counter)
	}
}

func TestUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := UntilCanceled(ctx, zerolog.Nop(), "test", time.Millisecond, func() error {
		calls++
		if calls == 3 {
			cancel()
		}
		if calls == 2 {
			return errors.New("failure")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestUntilCanceledNotStarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := UntilCanceled(ctx, zerolog.Nop(), "test", time.Millisecond, func() error {
		t.Error("Callback must not be called")
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
