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
	"bytes"
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/vmctl/cmd/util"
	"gvisor.dev/vmspace/vmctl/scenario"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	// jobs is the maximum number of scenarios run at once.
	jobs int
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run address space scenarios"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <scenario.yaml>... - run address space scenarios.

Each scenario runs on its own machine, configured by the global flags. The
result of every step is printed; the command fails if any step does not
produce its expected result.

EXAMPLE:
    $ vmctl --stack-pages=4 run fork.yaml
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.jobs, "j", 4, "number of scenarios to run concurrently.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf, status := configFromArgs(args)
	if status != subcommands.ExitSuccess {
		return status
	}

	files := f.Args()
	outputs := make([]bytes.Buffer, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if r.jobs > 0 {
		g.SetLimit(r.jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := scenario.Load(file)
			if err != nil {
				return err
			}
			log.Infof("Running scenario %q from %q", s.Name, file)
			return s.Run(scenario.NewEnv(conf), &outputs[i])
		})
	}
	err := g.Wait()
	for i := range outputs {
		os.Stdout.Write(outputs[i].Bytes())
	}
	if err != nil {
		return util.Errorf("run failed: %v", err)
	}
	return subcommands.ExitSuccess
}
