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

// Package cli is the main entrypoint for vmctl.
package cli

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/vmctl/cmd"
	"gvisor.dev/vmspace/vmctl/cmd/util"
	"gvisor.dev/vmspace/vmctl/config"
)

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		util.Fatalf("%v", err)
	}

	subcommand := flag.CommandLine.Arg(0)

	// Set up logging.
	if conf.Debug {
		log.SetLevel(log.Debug)
	}

	var emitters log.MultiEmitter
	emitters = append(emitters, newEmitter(conf.LogFormat, os.Stderr))
	if conf.DebugLog != "" {
		f, err := log.OpenFile(conf.DebugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, log.PatternOpts{
			Command: subcommand,
			Start:   time.Now(),
		})
		if err != nil {
			util.Fatalf("error opening debug log file in %q: %v", conf.DebugLog, err)
		}
		emitters = append(emitters, newEmitter(conf.DebugLogFormat, f))
	}

	switch len(emitters) {
	case 1:
		// Use the singular emitter to avoid needless
		// `for` loop overhead when logging to a single place.
		log.SetTarget(emitters[0])
	default:
		log.SetTarget(&emitters)
	}

	log.Debugf("vmctl %s, %s, %d CPUs, PID %d", runtime.Version(), runtime.GOARCH, runtime.NumCPU(), os.Getpid())
	log.Debugf("Args: %v", os.Args)
	if log.IsLogging(log.Debug) {
		conf.Log()
	}

	// Call the subcommand and pass in the configuration.
	status := subcommands.Execute(context.Background(), conf)
	if status != subcommands.ExitSuccess {
		log.Debugf("Failure to execute command, status: %v", status)
	}
	os.Exit(int(status))
}

// forEachCmd invokes the passed callback for each command supported by vmctl.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")

	cb(new(cmd.Run), "")
	cb(new(cmd.Layout), "")
}

func newEmitter(format string, logFile *os.File) log.Emitter {
	e, err := log.NewEmitter(format, &log.Writer{Next: logFile})
	if err != nil {
		util.Fatalf("%v", err)
	}
	return e
}
