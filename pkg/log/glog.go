// Copyright 2026 The gVisor Authors.
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

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// GoogleEmitter is a wrapper that emits logs in a format compatible with
// package github.com/golang/glog.
type GoogleEmitter struct {
	*Writer
}

// glogPID is the thread id column, padded to 7 characters like glog.
var glogPID = fmt.Sprintf("%7d", os.Getpid())

// levelLetter returns the glog severity character of level.
func levelLetter(level Level) byte {
	switch level {
	case Debug:
		return 'D'
	case Info:
		return 'I'
	default:
		return 'W'
	}
}

// Emit emits the message, google-style.
//
// Log lines have this form:
//
//	Lmmdd hh:mm:ss.uuuuuu pid file:line] msg...
//
// where L is the level (D, I or W), followed by the timestamp, the space
// padded process ID and the caller's file and line.
func (g GoogleEmitter) Emit(depth int, level Level, timestamp time.Time, format string, args ...any) {
	caller := "???:0"
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	b.Grow(len(format) + 64)
	b.WriteByte(levelLetter(level))
	b.WriteString(timestamp.Format("0102 15:04:05.000000"))
	b.WriteByte(' ')
	b.WriteString(glogPID)
	b.WriteByte(' ')
	b.WriteString(caller)
	b.WriteString("] ")
	b.WriteString(format)
	b.WriteByte('\n')

	g.Writer.Emit(depth+1, level, timestamp, b.String(), args...)
}
