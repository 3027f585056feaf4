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
	"time"

	"gvisor.dev/vmspace/pkg/cleanup"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/platform"
	"gvisor.dev/vmspace/pkg/sentry/usage"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Layout is the user address space layout. The zero value selects
	// DefaultLayout.
	Layout Layout

	// Heap is charged for address space and region records. If nil, an
	// unbounded heap is used.
	Heap *usage.Heap

	// PageTable holds the frames mapped by every address space. It must be
	// non-nil.
	PageTable platform.PageTable
}

// Manager creates, duplicates and destroys address spaces.
//
// Manager is safe for concurrent use, provided that each AddressSpace is
// used by one goroutine at a time.
type Manager struct {
	layout Layout
	heap   *usage.Heap
	pt     platform.PageTable

	// warn logs page table failures.
	warn log.Logger
}

// NewManager returns a Manager configured by opts. It panics if opts.Layout
// is invalid or opts.PageTable is nil.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout()
	}
	if err := opts.Layout.Validate(); err != nil {
		panic(fmt.Sprintf("invalid layout: %v", err))
	}
	if opts.PageTable == nil {
		panic("mm.NewManager: nil PageTable")
	}
	if opts.Heap == nil {
		opts.Heap = usage.NewHeap(0)
	}
	return &Manager{
		layout: opts.Layout,
		heap:   opts.Heap,
		pt:     opts.PageTable,
		warn:   log.BasicRateLimitedLogger(time.Second),
	}
}

// Layout returns the layout of address spaces created by m.
func (m *Manager) Layout() Layout {
	return m.layout
}

// Heap returns the kernel heap charged by m.
func (m *Manager) Heap() *usage.Heap {
	return m.heap
}

// Create returns a new address space with no regions. It returns ENOMEM if
// the address space record cannot be allocated.
func (m *Manager) Create() (*AddressSpace, error) {
	if err := m.heap.Alloc(addressSpaceSize, usage.AddressSpaces); err != nil {
		return nil, err
	}
	as := &AddressSpace{
		id:      platform.NewASID(),
		mgr:     m,
		regions: newRegionSet(),
	}
	log.Debugf("mm: %v: created", as)
	return as, nil
}

// Duplicate returns a copy of src, as made by fork. The copy has the same
// regions as src, with the permissions they had before any BeginLoad, and
// shares every frame of src copy-on-write.
//
// The region sets of src and the copy are independent. On failure nothing
// of the copy remains.
func (m *Manager) Duplicate(src *AddressSpace) (*AddressSpace, error) {
	dst, err := m.Create()
	if err != nil {
		return nil, err
	}
	cu := cleanup.Make(func() { m.Destroy(dst) })
	defer cu.Clean()

	src.regions.forEach(func(r *Region) bool {
		err = dst.defineRegion(r.SavedPerms, r.Start, r.Length, r.Kind, r.Heap)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	if err := m.pt.DuplicateFrames(dst.id, src.id); err != nil {
		m.warn.Warningf("mm: duplicating frames of %v into %v: %v", src, dst, err)
		return nil, err
	}

	cu.Release()
	log.Debugf("mm: %v: duplicated from %v with %d regions", dst, src, dst.regions.len())
	return dst, nil
}

// Destroy releases as: its frames are purged from the page table, then its
// regions and the address space itself are freed. A page table failure is
// returned, but as is released regardless.
//
// as must not be used after Destroy.
func (m *Manager) Destroy(as *AddressSpace) error {
	err := m.pt.PurgeFrames(as.id)
	if err != nil {
		m.warn.Warningf("mm: purging frames of %v: %v", as, err)
	}
	n := as.regions.removeAll()
	for i := 0; i < n; i++ {
		m.heap.Free(regionNodeSize, usage.Regions)
	}
	m.heap.Free(addressSpaceSize, usage.AddressSpaces)
	log.Debugf("mm: %v: destroyed with %d regions", as, n)
	return err
}
