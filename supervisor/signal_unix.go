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

//go:build !windows

package supervisor

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/trivago/netrunner/logx"
)

// newSignalHandler returns a channel fed SIGINT and SIGTERM.
func newSignalHandler() chan os.Signal {
	signalHandler := make(chan os.Signal, 1)
	signal.Notify(signalHandler, syscall.SIGINT, syscall.SIGTERM)
	return signalHandler
}

// WatchSignals spawns a goroutine that calls s.Stop() on the first
// SIGINT/SIGTERM received.
func (s *Supervisor) WatchSignals() {
	sigCh := newSignalHandler()
	go func() {
		sig := <-sigCh
		logx.Note.Printf("supervisor: received signal %v, shutting down", sig)
		s.Stop()
	}()
}
