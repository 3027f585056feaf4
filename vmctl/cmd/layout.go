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
	"fmt"
	"os"

	"github.com/google/subcommands"
	"gvisor.dev/vmspace/vmctl/cmd/util"
)

// Layout implements subcommands.Command for the "layout" command.
type Layout struct {
	// toml prints the configuration as a config file.
	toml bool
}

// Name implements subcommands.Command.Name.
func (*Layout) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Layout) Synopsis() string {
	return "print the effective machine configuration"
}

// Usage implements subcommands.Command.Usage.
func (*Layout) Usage() string {
	return `layout [-toml] - print the effective machine configuration.

With -toml, the output is a config file that can be passed back with --config.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (l *Layout) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&l.toml, "toml", false, "print the configuration in TOML.")
}

// Execute implements subcommands.Command.Execute.
func (l *Layout) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf, status := configFromArgs(args)
	if status != subcommands.ExitSuccess {
		return status
	}
	if l.toml {
		if err := conf.WriteTOML(os.Stdout); err != nil {
			return util.Errorf("writing configuration: %v", err)
		}
		return subcommands.ExitSuccess
	}
	layout := conf.Layout()
	fmt.Printf("user:   [0x0, %#x)\n", uint64(layout.StackTop))
	fmt.Printf("stack:  %v, %d pages\n", layout.StackRange(), layout.StackPages)
	fmt.Printf("kernel: [%#x, ...)\n", uint64(layout.StackTop))
	fmt.Printf("frames: %d\n", conf.Frames)
	fmt.Printf("hpt:    %d translations\n", conf.PageTableSize)
	if conf.HeapLimit == 0 {
		fmt.Printf("heap:   unlimited\n")
	} else {
		fmt.Printf("heap:   %d bytes\n", conf.HeapLimit)
	}
	return subcommands.ExitSuccess
}
