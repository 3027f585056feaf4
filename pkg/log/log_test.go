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
	"strings"
	"testing"
	"time"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	expected := []string{
		"line 1\n",
		"line 2\n",
		"\n*** Dropped 2 log messages ***\n",
	}
	if len(tw.lines) != len(expected) {
		t.Fatalf("Writer should have logged %d lines, got: %q, expected: %q", len(expected), tw.lines, expected)
	}
	for i, l := range tw.lines {
		if l != expected[i] {
			t.Fatalf("line %d doesn't match, got: %q, expected: %q", i, l, expected[i])
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tw := &testWriter{}
	l := &BasicLogger{Level: Info, Emitter: &Writer{Next: tw}}
	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warningf("shown %d", 3)
	if got, want := strings.Join(tw.lines, ""), "shown 2\nshown 3\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	l.SetLevel(Debug)
	if !l.IsLogging(Debug) {
		t.Errorf("IsLogging(Debug) = false after SetLevel(Debug)")
	}
}

func TestGoogleEmitter(t *testing.T) {
	tw := &testWriter{}
	e := GoogleEmitter{&Writer{Next: tw}}
	ts := time.Date(2026, time.March, 4, 5, 6, 7, 8000, time.UTC)
	e.Emit(0, Warning, ts, "frames %d", 3)
	if len(tw.lines) != 1 {
		t.Fatalf("got %d writes, want 1: %q", len(tw.lines), tw.lines)
	}
	line := tw.lines[0]
	if !strings.HasPrefix(line, "W0304 05:06:07.000008 ") {
		t.Errorf("header of %q is wrong", line)
	}
	if !strings.Contains(line, "log_test.go:") || !strings.HasSuffix(line, "] frames 3\n") {
		t.Errorf("body of %q is wrong", line)
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{Warning, Info, Debug} {
		got, err := ParseLevel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = (%v, %v), want %v", l.String(), got, err, l)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Errorf("ParseLevel(trace) succeeded")
	}
}

func TestRateLimitedLogger(t *testing.T) {
	tw := &testWriter{}
	l := RateLimitedLogger(&BasicLogger{Level: Warning, Emitter: &Writer{Next: tw}}, time.Hour)
	for i := 0; i < 5; i++ {
		l.Warningf("purge failed %d", i)
	}
	if got := strings.Join(tw.lines, ""); got != "purge failed 0\n" {
		t.Errorf("got %q, want only the first message", got)
	}
}

func TestPatternOpts(t *testing.T) {
	p := PatternOpts{Command: "run", Start: time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)}
	got := p.Build("/tmp/vmctl/%COMMAND%-%TIMESTAMP%.log")
	if want := "/tmp/vmctl/run-20260102-030405.000000.log"; got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}
