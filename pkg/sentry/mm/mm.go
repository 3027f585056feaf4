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

// Package mm implements the per-process virtual address space: the ordered
// set of regions a process owns, their permissions, and the lifecycle of the
// space across process creation, program load, duplication and exit.
//
// Physical memory is not managed here. Frames and their translations belong
// to a platform.PageTable; an AddressSpace only asks it to duplicate or purge
// the frames mapped under its ASID.
//
// Lock order: an AddressSpace has no internal locking. Each AddressSpace must
// be mutated by at most one goroutine at a time, normally the goroutine
// running the owning process.
package mm

import (
	"unsafe"

	"gvisor.dev/vmspace/pkg/hostarch"
)

const (
	// DefaultStackTop is the default user stack top. Every address at or
	// above it belongs to the kernel.
	DefaultStackTop hostarch.Addr = 0x80000000

	// DefaultStackPages is the default number of pages in a user stack.
	DefaultStackPages = 16
)

var (
	// regionNodeSize is the kernel heap charge for one region.
	regionNodeSize = uint64(unsafe.Sizeof(Region{}))

	// addressSpaceSize is the kernel heap charge for one address space
	// record, excluding its regions.
	addressSpaceSize = uint64(unsafe.Sizeof(AddressSpace{}))
)
