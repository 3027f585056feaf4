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

	"gvisor.dev/vmspace/pkg/hostarch"
)

// RegionKind determines which way a region extends from its start address.
type RegionKind int

const (
	// Ordinary regions occupy [Start, Start+Length).
	Ordinary RegionKind = iota

	// Stack regions grow down and occupy [Start-Length, Start).
	Stack
)

// String implements fmt.Stringer.String.
func (k RegionKind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Stack:
		return "stack"
	default:
		return fmt.Sprintf("RegionKind(%d)", int(k))
	}
}

// Region is a contiguous, page-aligned range of user addresses with a single
// set of permissions.
type Region struct {
	// Start is the anchor address of the region: its lowest address for
	// Ordinary regions, and one past its highest address for Stack regions.
	Start hostarch.Addr

	// Length is the size of the region in bytes.
	Length uint64

	// Perms are the current permissions.
	Perms hostarch.AccessType

	// SavedPerms are the permissions Perms is restored to by EndLoad. They
	// equal Perms outside of a BeginLoad/EndLoad bracket.
	SavedPerms hostarch.AccessType

	Kind RegionKind

	// Heap is set by MarkHeap.
	Heap bool

	// seq orders regions with equal Start by insertion.
	seq uint64
}

// Range returns the addresses occupied by r.
func (r *Region) Range() hostarch.AddrRange {
	if r.Kind == Stack {
		return hostarch.AddrRange{Start: r.Start - hostarch.Addr(r.Length), End: r.Start}
	}
	return hostarch.AddrRange{Start: r.Start, End: r.Start + hostarch.Addr(r.Length)}
}

// Contains returns true if addr is in r.
func (r *Region) Contains(addr hostarch.Addr) bool {
	return r.Range().Contains(addr)
}

// String implements fmt.Stringer.String.
func (r *Region) String() string {
	s := fmt.Sprintf("%v %v %v", r.Kind, r.Range(), r.Perms)
	if r.Heap {
		s += " heap"
	}
	return s
}
