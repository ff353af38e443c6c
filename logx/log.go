// Copyright 2015-2016 trivago GmbH
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

// Package logx is the process-wide leveled logger used by every subsystem
// of the network-serving runtime (reactor, kafka, supervisor). It keeps a
// single mutable verbosity level, the one piece of global mutable state the
// runtime's design notes call out as deliberate.
package logx

import (
	"io"
	"log"
	"os"
)

// Verbosity enumerates the log levels, low to high.
type Verbosity byte

const (
	// VerbosityError shows only error messages.
	VerbosityError = Verbosity(iota)
	// VerbosityWarning shows error and warning messages.
	VerbosityWarning
	// VerbosityNote shows error, warning and note messages.
	VerbosityNote
	// VerbosityDebug shows all messages.
	VerbosityDebug
)

var (
	// Error is the channel for error-level messages.
	Error = log.New(io.Discard, "", 0)
	// Warning is the channel for warning-level messages.
	Warning = log.New(io.Discard, "", 0)
	// Note is the channel for informational messages.
	Note = log.New(io.Discard, "", 0)
	// Debug is the channel for debug messages.
	Debug = log.New(io.Discard, "", 0)

	cache         = newLogCache()
	writer io.Writer = cache
	level         = VerbosityNote
)

func init() {
	SetVerbosity(VerbosityNote)
}

// SetVerbosity sets the process-wide log level. Levels are cumulative: a
// level includes every level listed above it.
func SetVerbosity(v Verbosity) {
	level = v

	Error = log.New(io.Discard, "", 0)
	Warning = log.New(io.Discard, "", 0)
	Note = log.New(io.Discard, "", 0)
	Debug = log.New(io.Discard, "", 0)

	switch level {
	default:
		fallthrough
	case VerbosityDebug:
		Debug = log.New(writer, "DEBUG: ", log.LstdFlags)
		fallthrough
	case VerbosityNote:
		Note = log.New(writer, "", log.LstdFlags)
		fallthrough
	case VerbosityWarning:
		Warning = log.New(writer, "WARN: ", log.LstdFlags)
		fallthrough
	case VerbosityError:
		Error = log.New(writer, "ERROR: ", log.LstdFlags)
	}
}

// SetWriter redirects enabled log channels to w, flushing any messages that
// were buffered before a writer was configured (e.g. before flags are
// parsed at process start).
func SetWriter(w io.Writer) {
	old := writer
	writer = w
	if c, ok := old.(*logCache); ok {
		c.flushTo(w)
	}
	SetVerbosity(level)
}

// Default wires the logger to stderr, the runtime's normal startup
// configuration, keeping the current verbosity (VerbosityNote unless
// SetVerbosity changed it).
func Default() {
	SetWriter(os.Stderr)
}
