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

// Package platform provides the abstractions of the machine an address space
// runs on: processors with their translation caches, and the page table that
// maps virtual pages of each address space to physical frames.
package platform

import (
	"github.com/google/uuid"
)

// ASID identifies an address space to the page table and the processors.
type ASID uuid.UUID

// NewASID returns a fresh, random ASID.
func NewASID() ASID {
	return ASID(uuid.New())
}

// String implements fmt.Stringer.String.
func (id ASID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits of id, for logs and maps output.
func (id ASID) Short() string {
	return id.String()[:8]
}

// PageTable maps the virtual pages of every address space to physical frames.
// Frame reference counting, and any locking it needs, is the page table's
// business; callers must not assume that either operation is atomic.
type PageTable interface {
	// DuplicateFrames makes every frame mapped by src also mapped, at the
	// same virtual page, by dst. Frames become shared copy-on-write: both
	// mappings are made read-only and the frame's reference count is
	// incremented. The first write to a shared frame, through either
	// mapping, is expected to copy it.
	//
	// On failure, dst may be left with a subset of the mappings; the caller
	// releases them with PurgeFrames.
	DuplicateFrames(dst, src ASID) error

	// PurgeFrames removes every mapping owned by as, dropping a reference
	// on each mapped frame.
	PurgeFrames(as ASID) error
}

// IPL is a processor's interrupt priority level.
type IPL int

const (
	// IPLNone means all interrupts are enabled.
	IPLNone IPL = iota

	// IPLHigh means all interrupts are disabled.
	IPLHigh
)

// CPU is the processor-local state an address space is activated on.
//
// A CPU is owned by the thread running on it; its methods are not safe for
// concurrent use.
type CPU interface {
	// DisableInterrupts raises the interrupt priority level to IPLHigh and
	// returns the previous level.
	DisableInterrupts() IPL

	// RestoreInterrupts sets the interrupt priority level to a value
	// previously returned by DisableInterrupts.
	RestoreInterrupts(IPL)

	// FlushTLB invalidates every entry of the processor's translation
	// cache.
	//
	// Precondition: interrupts are disabled.
	FlushTLB()
}

// WithInterruptsDisabled runs fn with interrupts disabled on cpu. The previous
// interrupt level is restored when fn returns or panics.
func WithInterruptsDisabled(cpu CPU, fn func()) {
	old := cpu.DisableInterrupts()
	defer cpu.RestoreInterrupts(old)
	fn()
}
