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

package mm

import (
	"fmt"

	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/platform"
	"gvisor.dev/vmspace/pkg/sentry/usage"
)

// AddressSpace is the virtual memory context of one process.
//
// AddressSpaces are created by Manager.Create or Manager.Duplicate and
// released by Manager.Destroy.
type AddressSpace struct {
	// id names the address space to the page table. id is immutable.
	id platform.ASID

	// mgr is the Manager that created the address space. mgr is immutable.
	mgr *Manager

	regions regionSet
}

// ID returns the identity of as in the page table.
func (as *AddressSpace) ID() platform.ASID {
	return as.id
}

// Layout returns the user address space layout of as.
func (as *AddressSpace) Layout() Layout {
	return as.mgr.layout
}

// NumRegions returns the number of regions in as.
func (as *AddressSpace) NumRegions() int {
	return as.regions.len()
}

// Regions returns a copy of the regions of as, in order.
func (as *AddressSpace) Regions() []Region {
	rs := make([]Region, 0, as.regions.len())
	as.regions.forEach(func(r *Region) bool {
		rs = append(rs, *r)
		return true
	})
	return rs
}

// String implements fmt.Stringer.String.
func (as *AddressSpace) String() string {
	return fmt.Sprintf("as %s", as.id.Short())
}

// DefineRegion adds an Ordinary region covering [addr, addr+length) with the
// given permissions. The region is widened to whole pages: its start is addr
// rounded down, and its length covers the in-page offset of addr and is
// rounded up.
//
// DefineRegion does not check that the new region is disjoint from existing
// ones. It returns ENOMEM, leaving as unchanged, if the region cannot be
// allocated or does not fit in the address space.
func (as *AddressSpace) DefineRegion(perms hostarch.AccessType, addr hostarch.Addr, length uint64) error {
	return as.defineRegion(perms, addr, length, Ordinary, false)
}

func (as *AddressSpace) defineRegion(perms hostarch.AccessType, addr hostarch.Addr, length uint64, kind RegionKind, heap bool) error {
	offset := addr.PageOffset()
	if length+offset < length {
		return linuxerr.ENOMEM
	}
	length, ok := hostarch.PageRoundUp(length + offset)
	if !ok {
		return linuxerr.ENOMEM
	}
	start := addr.RoundDown()
	switch kind {
	case Stack:
		if uint64(start) < length {
			return linuxerr.ENOMEM
		}
	default:
		if _, ok := start.AddLength(length); !ok {
			return linuxerr.ENOMEM
		}
	}

	if err := as.mgr.heap.Alloc(regionNodeSize, usage.Regions); err != nil {
		log.Debugf("mm: %v: no memory for %v region at %v: %v", as, kind, start, err)
		return err
	}
	r := &Region{
		Start:      start,
		Length:     length,
		Perms:      perms,
		SavedPerms: perms,
		Kind:       kind,
		Heap:       heap,
	}
	if log.IsLogging(log.Debug) {
		if o := as.regions.overlapping(r.Range()); o != nil {
			log.Debugf("mm: %v: region %v overlaps %v", as, r, o)
		}
	}
	as.regions.insert(r)
	log.Debugf("mm: %v: defined region %v", as, r)
	return nil
}

// MarkHeap flags the Ordinary region containing addr as the process heap. It
// returns EFAULT if no region contains addr, and EINVAL if the containing
// region is a stack.
func (as *AddressSpace) MarkHeap(addr hostarch.Addr) error {
	r := as.regions.find(addr)
	if r == nil {
		return linuxerr.EFAULT
	}
	if r.Kind == Stack {
		return linuxerr.EINVAL
	}
	r.Heap = true
	return nil
}
