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

package logx

import "io"

// logCache buffers log lines written before SetWriter installs a real
// destination, so nothing written during early startup is lost.
type logCache struct {
	lines []string
}

func newLogCache() *logCache {
	return &logCache{}
}

func (c *logCache) Write(p []byte) (int, error) {
	c.lines = append(c.lines, string(p))
	return len(p), nil
}

func (c *logCache) flushTo(w io.Writer) {
	for _, line := range c.lines {
		w.Write([]byte(line))
	}
	c.lines = nil
}
