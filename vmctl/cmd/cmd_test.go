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

package cmd

import (
	"context"
	"flag"
	"io"
	"testing"

	"github.com/google/subcommands"
	"gvisor.dev/vmspace/vmctl/cmd/util"
	"gvisor.dev/vmspace/vmctl/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	config.RegisterFlags(testFlags)
	conf, err := config.NewFromFlags(testFlags)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	return conf
}

func execute(t *testing.T, c subcommands.Command, conf *config.Config, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return c.Execute(context.Background(), f, conf)
}

func TestRun(t *testing.T) {
	old := util.ErrorLogger
	util.ErrorLogger = io.Discard
	defer func() { util.ErrorLogger = old }()

	conf := testConfig(t)
	for _, tc := range []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{name: "no files", want: subcommands.ExitUsageError},
		{name: "one", args: []string{"../scenario/testdata/fork.yaml"}, want: subcommands.ExitSuccess},
		{name: "concurrent", args: []string{"-j=2", "../scenario/testdata/fork.yaml", "../scenario/testdata/fork.yaml", "../scenario/testdata/fork.yaml"}, want: subcommands.ExitSuccess},
		{name: "missing file", args: []string{"../scenario/testdata/fork.yaml", "testdata/missing.yaml"}, want: subcommands.ExitFailure},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := execute(t, new(Run), conf, tc.args...); got != tc.want {
				t.Errorf("run %v got status %v want %v", tc.args, got, tc.want)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	conf := testConfig(t)
	for _, args := range [][]string{nil, {"-toml"}} {
		if got := execute(t, new(Layout), conf, args...); got != subcommands.ExitSuccess {
			t.Errorf("layout %v got status %v want %v", args, got, subcommands.ExitSuccess)
		}
	}
}

func TestMissingConfig(t *testing.T) {
	old := util.ErrorLogger
	util.ErrorLogger = io.Discard
	defer func() { util.ErrorLogger = old }()

	f := flag.NewFlagSet("layout", flag.ContinueOnError)
	if got := new(Layout).Execute(context.Background(), f); got != subcommands.ExitFailure {
		t.Errorf("layout without a configuration got status %v want %v", got, subcommands.ExitFailure)
	}
}
