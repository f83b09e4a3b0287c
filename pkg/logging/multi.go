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
	"io"
	"os"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
)

type multiWriter struct {
	writers []io.Writer
}

// NewMultiWriter creates a new output for logs that writes to all given
// outputs. Nil outputs are skipped.
func NewMultiWriter(writers ...io.Writer) io.Writer {
	l := &multiWriter{}
	for _, w := range writers {
		if w != nil {
			l.writers = append(l.writers, w)
		}
	}
	return l
}

// Write p to all outputs.
// A failing output does not stop the others.
func (l *multiWriter) Write(p []byte) (n int, err error) {
	ae := &aerr.AggregateError{}
	for _, w := range l.writers {
		_, werr := w.Write(p)
		ae.Add(werr)
	}
	return len(p), ae.AsError()
}

// OpenLogFile opens (or creates) the given file for appending log lines.
func OpenLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file '%s'", path)
	}
	return f, nil
}
