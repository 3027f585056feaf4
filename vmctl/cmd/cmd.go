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

// Package cmd holds implementations of the vmctl commands.
package cmd

import (
	"github.com/google/subcommands"
	"gvisor.dev/vmspace/vmctl/cmd/util"
	"gvisor.dev/vmspace/vmctl/config"
)

// configFromArgs returns the Config passed to a command by cli.Main.
func configFromArgs(args []any) (*config.Config, subcommands.ExitStatus) {
	if len(args) == 0 {
		return nil, util.Errorf("internal error: no configuration")
	}
	conf, ok := args[0].(*config.Config)
	if !ok {
		return nil, util.Errorf("internal error: configuration has type %T", args[0])
	}
	return conf, subcommands.ExitSuccess
}
