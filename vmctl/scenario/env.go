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

package scenario

import (
	"gvisor.dev/vmspace/pkg/sentry/hpt"
	"gvisor.dev/vmspace/pkg/sentry/mm"
	"gvisor.dev/vmspace/pkg/sentry/pgalloc"
	"gvisor.dev/vmspace/pkg/sentry/platform/simcpu"
	"gvisor.dev/vmspace/pkg/sentry/usage"
	"gvisor.dev/vmspace/vmctl/config"
)

// Env is the machine a scenario runs on.
type Env struct {
	Manager   *mm.Manager
	PageTable *hpt.PageTable
	Memory    *pgalloc.MemoryFile

	cpus   map[int]*simcpu.CPU
	spaces map[string]*mm.AddressSpace
}

// NewEnv returns a fresh machine configured by conf.
//
// Precondition: conf has been validated by config.NewFromFlags.
func NewEnv(conf *config.Config) *Env {
	mf := pgalloc.NewMemoryFile(uint32(conf.Frames))
	pt := hpt.New(mf, conf.PageTableSize)
	return &Env{
		Manager: mm.NewManager(mm.ManagerOptions{
			Layout:    conf.Layout(),
			Heap:      usage.NewHeap(conf.HeapLimit),
			PageTable: pt,
		}),
		PageTable: pt,
		Memory:    mf,
		cpus:      make(map[int]*simcpu.CPU),
		spaces:    make(map[string]*mm.AddressSpace),
	}
}

// cpu returns processor id, creating it on first use.
func (e *Env) cpu(id int) *simcpu.CPU {
	c, ok := e.cpus[id]
	if !ok {
		c = simcpu.New(id)
		e.cpus[id] = c
	}
	return c
}

// Spaces returns the number of live address spaces.
func (e *Env) Spaces() int {
	return len(e.spaces)
}
