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

// Package simcpu implements platform.CPU in software: a processor with an
// interrupt priority level and a small, fully associative TLB.
package simcpu

import (
	"fmt"

	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/platform"
)

// NumTLB is the number of TLB entries.
const NumTLB = 64

// tlbEntry is one translation.
type tlbEntry struct {
	valid    bool
	vpn      uint64
	pfn      uint64
	writable bool
}

// CPU is a simulated processor.
type CPU struct {
	id  int
	ipl platform.IPL

	tlb [NumTLB]tlbEntry

	// next is the slot replaced by the next Load.
	next int

	// flushes counts FlushTLB calls.
	flushes int
}

var _ platform.CPU = (*CPU)(nil)

// New returns a CPU with interrupts enabled and an empty TLB.
func New(id int) *CPU {
	return &CPU{id: id}
}

// ID returns the processor number.
func (c *CPU) ID() int {
	return c.id
}

// DisableInterrupts implements platform.CPU.DisableInterrupts.
func (c *CPU) DisableInterrupts() platform.IPL {
	old := c.ipl
	c.ipl = platform.IPLHigh
	return old
}

// RestoreInterrupts implements platform.CPU.RestoreInterrupts.
func (c *CPU) RestoreInterrupts(ipl platform.IPL) {
	c.ipl = ipl
}

// IPL returns the current interrupt priority level.
func (c *CPU) IPL() platform.IPL {
	return c.ipl
}

// FlushTLB implements platform.CPU.FlushTLB.
func (c *CPU) FlushTLB() {
	if c.ipl != platform.IPLHigh {
		panic(fmt.Sprintf("cpu%d: TLB flush with interrupts enabled", c.id))
	}
	for i := range c.tlb {
		c.tlb[i] = tlbEntry{}
	}
	c.next = 0
	c.flushes++
	log.Debugf("cpu%d: TLB flushed", c.id)
}

// Flushes returns the number of completed TLB flushes.
func (c *CPU) Flushes() int {
	return c.flushes
}

// Load installs a translation for the page containing addr, replacing entries
// round-robin once the TLB is full. It plays the part of the TLB refill
// handler.
func (c *CPU) Load(addr hostarch.Addr, pfn uint64, writable bool) {
	old := c.DisableInterrupts()
	defer c.RestoreInterrupts(old)

	vpn := addr.PageNumber()
	slot := -1
	for i := range c.tlb {
		if c.tlb[i].valid && c.tlb[i].vpn == vpn {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = c.next
		c.next = (c.next + 1) % NumTLB
	}
	c.tlb[slot] = tlbEntry{valid: true, vpn: vpn, pfn: pfn, writable: writable}
}

// Probe looks up the translation for the page containing addr.
func (c *CPU) Probe(addr hostarch.Addr) (pfn uint64, writable bool, ok bool) {
	vpn := addr.PageNumber()
	for i := range c.tlb {
		if e := &c.tlb[i]; e.valid && e.vpn == vpn {
			return e.pfn, e.writable, true
		}
	}
	return 0, false, false
}

// Valid returns the number of valid TLB entries.
func (c *CPU) Valid() int {
	n := 0
	for i := range c.tlb {
		if c.tlb[i].valid {
			n++
		}
	}
	return n
}
