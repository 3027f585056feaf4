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
)

// SegmentClass is the kind of memory an address refers to.
type SegmentClass int

const (
	// SegUnmapped is a user address outside every region.
	SegUnmapped SegmentClass = iota

	// SegCode is an address in an Ordinary region. Code and data are not
	// distinguished.
	SegCode

	// SegHeap is an address in a region marked with MarkHeap.
	SegHeap

	// SegStack is an address in a Stack region.
	SegStack

	// SegKernel is an address at or above the stack top.
	SegKernel
)

// String implements fmt.Stringer.String.
func (c SegmentClass) String() string {
	switch c {
	case SegUnmapped:
		return "unmapped"
	case SegCode:
		return "code"
	case SegHeap:
		return "heap"
	case SegStack:
		return "stack"
	case SegKernel:
		return "kernel"
	default:
		return fmt.Sprintf("SegmentClass(%d)", int(c))
	}
}

// Classify returns the class of addr. Regions are searched in order and the
// first region containing addr decides.
func (as *AddressSpace) Classify(addr hostarch.Addr) SegmentClass {
	if addr >= as.mgr.layout.StackTop {
		return SegKernel
	}
	r := as.regions.find(addr)
	switch {
	case r == nil:
		return SegUnmapped
	case r.Kind == Stack:
		return SegStack
	case r.Heap:
		return SegHeap
	default:
		return SegCode
	}
}

// PermissionsOf returns the current permissions of the region containing
// addr. It returns EFAULT if addr is a kernel address.
//
// Precondition: addr is a kernel address or is in a region of as. A user
// address outside every region is a kernel bug, and PermissionsOf panics.
func (as *AddressSpace) PermissionsOf(addr hostarch.Addr) (hostarch.AccessType, error) {
	if addr >= as.mgr.layout.StackTop {
		return hostarch.NoAccess, linuxerr.EFAULT
	}
	r := as.regions.find(addr)
	if r == nil {
		panic(fmt.Sprintf("%v: user address %v is not in any of %d regions", as, addr, as.regions.len()))
	}
	return r.Perms, nil
}
