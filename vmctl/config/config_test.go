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

package config

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/vmspace/pkg/sentry/mm"
)

func newTestFlags(t *testing.T) *flag.FlagSet {
	t.Helper()
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	return testFlags
}

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vmctl.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c, err := NewFromFlags(newTestFlags(t))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		StackTop:       uint64(mm.DefaultStackTop),
		StackPages:     mm.DefaultStackPages,
		Frames:         1024,
		PageTableSize:  4096,
		LogFormat:      "text",
		DebugLogFormat: "text",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(mm.DefaultLayout(), c.Layout()); diff != "" {
		t.Errorf("default layout mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFlags(t *testing.T) {
	testFlags := newTestFlags(t)
	if err := testFlags.Parse([]string{"--debug", "--stack-top=0x40000000", "--stack-pages=8", "--hpt-size=32"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	if want := true; c.Debug != want {
		t.Errorf("Debug=%v, want: %v", c.Debug, want)
	}
	if want := uint64(0x40000000); c.StackTop != want {
		t.Errorf("StackTop=%#x, want: %#x", c.StackTop, want)
	}
	if want := uint64(8); c.StackPages != want {
		t.Errorf("StackPages=%v, want: %v", c.StackPages, want)
	}
	if want := 32; c.PageTableSize != want {
		t.Errorf("PageTableSize=%v, want: %v", c.PageTableSize, want)
	}
}

func TestConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
stack_top = 0x10000000
stack_pages = 4
frames = 64
heap_limit = 65536
log_format = "json"
`)
	testFlags := newTestFlags(t)
	if err := testFlags.Parse([]string{"--config=" + path, "--frames=128"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		ConfigFile:     path,
		StackTop:       0x10000000,
		StackPages:     4,
		Frames:         128,
		PageTableSize:  4096,
		HeapLimit:      65536,
		LogFormat:      "json",
		DebugLogFormat: "text",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigFileErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		contents string
		want     string
	}{
		{name: "unknown key", contents: "stack_bottom = 1\n", want: "unknown settings"},
		{name: "syntax", contents: "frames = \n", want: "error reading config file"},
		{name: "invalid layout", contents: "stack_top = 0x1001\n", want: "not a non-zero page-aligned"},
		{name: "invalid format", contents: `log_format = "xml"` + "\n", want: "invalid log format"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			testFlags := newTestFlags(t)
			if err := testFlags.Parse([]string{"--config=" + writeConfigFile(t, tc.contents)}); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err := NewFromFlags(testFlags)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("NewFromFlags got err %v want error containing %q", err, tc.want)
			}
		})
	}
}

func TestWriteTOMLRoundTrip(t *testing.T) {
	testFlags := newTestFlags(t)
	if err := testFlags.Parse([]string{"--frames=77", "--heap-limit=4096", "--debug-log=/tmp/vmctl.%PID%.log"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := want.WriteTOML(&b); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}

	path := writeConfigFile(t, b.String())
	testFlags = newTestFlags(t)
	if err := testFlags.Parse([]string{"--config=" + path}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatalf("NewFromFlags(%q): %v\n%s", path, err, b.String())
	}
	want.ConfigFile = path
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
