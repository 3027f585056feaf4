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

// Package usage provides kernel memory accounting. A Heap bounds the memory
// the kernel may spend on its own bookkeeping objects, and is the source of
// out-of-memory failures for their allocation.
package usage

import (
	"fmt"
	"sync"

	"gvisor.dev/vmspace/pkg/errors/linuxerr"
)

// MemoryKind represents a type of kernel memory.
type MemoryKind int

const (
	// System represents miscellaneous kernel memory.
	System MemoryKind = iota

	// AddressSpaces represents address space records.
	AddressSpaces

	// Regions represents region records owned by address spaces.
	Regions
)

// String implements fmt.Stringer.String.
func (k MemoryKind) String() string {
	switch k {
	case System:
		return "System"
	case AddressSpaces:
		return "AddressSpaces"
	case Regions:
		return "Regions"
	default:
		return fmt.Sprintf("MemoryKind(%d)", int(k))
	}
}

// MemoryStats tracks kernel memory usage in bytes. All fields correspond to
// the memory kind with the same name.
type MemoryStats struct {
	System        uint64
	AddressSpaces uint64
	Regions       uint64
}

// Total returns the sum of all kinds.
func (s MemoryStats) Total() uint64 {
	return s.System + s.AddressSpaces + s.Regions
}

// Heap is a bounded kernel heap. It does not hand out memory itself; callers
// charge the heap before creating an object and uncharge it when the object
// is released.
//
// Heap is safe for concurrent use.
type Heap struct {
	// limit is the maximum total charge in bytes. Zero means unlimited.
	limit uint64

	mu sync.Mutex

	// stats is protected by mu.
	stats MemoryStats
}

// NewHeap returns a Heap allowing at most limit bytes. A limit of zero means
// the heap is unbounded.
func NewHeap(limit uint64) *Heap {
	return &Heap{limit: limit}
}

// Limit returns the heap limit in bytes, or zero if the heap is unbounded.
func (h *Heap) Limit() uint64 {
	return h.limit
}

func (h *Heap) fieldLocked(kind MemoryKind) *uint64 {
	switch kind {
	case System:
		return &h.stats.System
	case AddressSpaces:
		return &h.stats.AddressSpaces
	case Regions:
		return &h.stats.Regions
	default:
		panic(fmt.Sprintf("invalid memory kind: %v", kind))
	}
}

// Alloc charges val bytes of the given kind. It returns ENOMEM, without
// charging anything, if doing so would exceed the limit.
func (h *Heap) Alloc(val uint64, kind MemoryKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := h.stats.Total()
	if h.limit != 0 && (total+val < total || total+val > h.limit) {
		return linuxerr.ENOMEM
	}
	*h.fieldLocked(kind) += val
	return nil
}

// Free releases val bytes of the given kind.
//
// Precondition: at least val bytes of kind are charged.
func (h *Heap) Free(val uint64, kind MemoryKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := h.fieldLocked(kind)
	if *f < val {
		panic(fmt.Sprintf("freeing %d bytes of %v with only %d charged", val, kind, *f))
	}
	*f -= val
}

// Copy returns a snapshot of the heap statistics.
func (h *Heap) Copy() MemoryStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Total returns the total charge in bytes.
func (h *Heap) Total() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats.Total()
}
