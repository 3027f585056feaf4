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

// Package scenario runs scripted address space workloads: a scenario is a
// YAML list of steps that create, load, fork, inspect and destroy address
// spaces, with optional expected results.
package scenario

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a named sequence of steps.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is a single operation. Which fields are used depends on Op.
type Step struct {
	// Op is the operation: create, duplicate, destroy, define_region,
	// define_stack, mark_heap, begin_load, end_load, map, write, read,
	// classify, perms, frames, maps, activate or deactivate.
	Op string `yaml:"op"`

	// Space names the address space operated on.
	Space string `yaml:"space,omitempty"`

	// From names the source of a duplicate.
	From string `yaml:"from,omitempty"`

	Addr   uint64 `yaml:"addr,omitempty"`
	Length uint64 `yaml:"length,omitempty"`

	// Perms are permissions in "rwx" form.
	Perms string `yaml:"perms,omitempty"`

	// Writable applies to map.
	Writable bool `yaml:"writable,omitempty"`

	// Data is written by write.
	Data string `yaml:"data,omitempty"`

	// CPU is the processor of activate and deactivate.
	CPU int `yaml:"cpu,omitempty"`

	// Expect, if set, is the expected result of the step as printed.
	Expect string `yaml:"expect,omitempty"`

	// Err, if set, is the errno name the step is expected to fail with,
	// e.g. "ENOMEM".
	Err string `yaml:"err,omitempty"`
}

// Parse reads a scenario from r. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("unable to decode scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if _, ok := ops[step.Op]; !ok {
			return nil, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}
	return &s, nil
}

// Load reads the scenario in the named file. A scenario without a name is
// named after its file.
func Load(filename string) (*Scenario, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open scenario: %w", err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if s.Name == "" {
		s.Name = filename
	}
	return s, nil
}
