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

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("failed")
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter(&a, nil, &b)
	log := zerolog.New(w)
	log.Info().Msg("hello")
	if a.String() != b.String() || !bytes.Contains(a.Bytes(), []byte("hello")) {
		t.Errorf("Unexpected output '%s' / '%s'", a.String(), b.String())
	}
}

func TestMultiWriterContinuesOnError(t *testing.T) {
	var a bytes.Buffer
	w := NewMultiWriter(failingWriter{}, &a)
	n, err := w.Write([]byte("x"))
	if err == nil {
		t.Error("Expected error")
	}
	if n != 1 || a.String() != "x" {
		t.Errorf("Expected all outputs written, got n=%d '%s'", n, a.String())
	}
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastpwm.log")
	for i := 0; i < 2; i++ {
		f, err := OpenLogFile(path)
		if err != nil {
			t.Fatalf("OpenLogFile failed: %v", err)
		}
		f.WriteString("line\n")
		f.Close()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "line\nline\n" {
		t.Errorf("Unexpected content '%s'", string(content))
	}
	if _, err := OpenLogFile(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("Expected error")
	}
}
