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

// Package hpt implements a hashed page table: a single, fixed-capacity table
// of translations for all address spaces, indexed by a hash of the address
// space and virtual page number.
//
// It implements platform.PageTable, including copy-on-write duplication of
// an address space's frames, and provides the mapping and write-fault
// primitives the fault handler builds on.
package hpt

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/dchest/siphash"
	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/pgalloc"
	"gvisor.dev/vmspace/pkg/sentry/platform"
)

// entry is one translation.
type entry struct {
	asid     platform.ASID
	vpn      uint64
	frame    pgalloc.Frame
	writable bool
}

// Translation is the result of a lookup.
type Translation struct {
	Frame    pgalloc.Frame
	Writable bool
}

// PageTable is a hashed page table.
//
// PageTable is safe for concurrent use.
type PageTable struct {
	mf *pgalloc.MemoryFile

	// k0 and k1 are the siphash keys.
	k0, k1 uint64

	// capacity is the maximum number of entries.
	capacity int

	mu sync.Mutex

	// buckets is protected by mu.
	buckets [][]*entry

	// count is the number of entries in buckets. It is protected by mu.
	count int
}

var _ platform.PageTable = (*PageTable)(nil)

// New returns an empty page table holding at most capacity translations of
// frames from mf.
func New(mf *pgalloc.MemoryFile, capacity int) *PageTable {
	if capacity <= 0 {
		panic(fmt.Sprintf("invalid page table capacity %d", capacity))
	}
	return &PageTable{
		mf:       mf,
		k0:       rand.Uint64(),
		k1:       rand.Uint64(),
		capacity: capacity,
		buckets:  make([][]*entry, capacity),
	}
}

// MemoryFile returns the frame pool backing pt.
func (pt *PageTable) MemoryFile() *pgalloc.MemoryFile {
	return pt.mf
}

func (pt *PageTable) bucket(asid platform.ASID, vpn uint64) int {
	var key [24]byte
	copy(key[:16], asid[:])
	binary.LittleEndian.PutUint64(key[16:], vpn)
	return int(siphash.Hash(pt.k0, pt.k1, key[:]) % uint64(len(pt.buckets)))
}

// findLocked returns the entry for (asid, vpn), or nil.
//
// Preconditions: pt.mu is locked.
func (pt *PageTable) findLocked(asid platform.ASID, vpn uint64) *entry {
	for _, e := range pt.buckets[pt.bucket(asid, vpn)] {
		if e.asid == asid && e.vpn == vpn {
			return e
		}
	}
	return nil
}

// insertLocked adds e, failing with ENOMEM if the table is full.
//
// Preconditions: pt.mu is locked. No entry for (e.asid, e.vpn) exists.
func (pt *PageTable) insertLocked(e *entry) error {
	if pt.count == pt.capacity {
		return linuxerr.ENOMEM
	}
	b := pt.bucket(e.asid, e.vpn)
	pt.buckets[b] = append(pt.buckets[b], e)
	pt.count++
	return nil
}

// Map backs the page containing addr in address space asid with a new zeroed
// frame. It returns EEXIST if the page is already mapped, and ENOMEM if
// either no frame is free or the table is full.
func (pt *PageTable) Map(asid platform.ASID, addr hostarch.Addr, writable bool) (pgalloc.Frame, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	vpn := addr.PageNumber()
	if pt.findLocked(asid, vpn) != nil {
		return 0, linuxerr.EEXIST
	}
	fr, err := pt.mf.Allocate()
	if err != nil {
		return 0, err
	}
	if err := pt.insertLocked(&entry{asid: asid, vpn: vpn, frame: fr, writable: writable}); err != nil {
		pt.mf.DecRef(fr)
		return 0, err
	}
	return fr, nil
}

// Lookup returns the translation of the page containing addr.
func (pt *PageTable) Lookup(asid platform.ASID, addr hostarch.Addr) (Translation, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	e := pt.findLocked(asid, addr.PageNumber())
	if e == nil {
		return Translation{}, false
	}
	return Translation{Frame: e.frame, Writable: e.writable}, true
}

// DuplicateFrames implements platform.PageTable.DuplicateFrames.
func (pt *PageTable) DuplicateFrames(dst, src platform.ASID) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	var shared int
	for _, b := range pt.buckets {
		for _, e := range b {
			if e.asid != src {
				continue
			}
			if pt.findLocked(dst, e.vpn) != nil {
				return linuxerr.EEXIST
			}
			if err := pt.insertLocked(&entry{asid: dst, vpn: e.vpn, frame: e.frame}); err != nil {
				log.Debugf("hpt: duplicating %s into %s failed after %d frames: %v", src.Short(), dst.Short(), shared, err)
				return err
			}
			e.writable = false
			pt.mf.IncRef(e.frame)
			shared++
		}
	}
	log.Debugf("hpt: %s shares %d frames copy-on-write with %s", dst.Short(), shared, src.Short())
	return nil
}

// PurgeFrames implements platform.PageTable.PurgeFrames.
func (pt *PageTable) PurgeFrames(asid platform.ASID) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	var purged int
	for i, b := range pt.buckets {
		kept := b[:0]
		for _, e := range b {
			if e.asid != asid {
				kept = append(kept, e)
				continue
			}
			pt.mf.DecRef(e.frame)
			purged++
		}
		for j := len(kept); j < len(b); j++ {
			b[j] = nil
		}
		pt.buckets[i] = kept
	}
	pt.count -= purged
	log.Debugf("hpt: purged %d frames of %s", purged, asid.Short())
	return nil
}

// BreakCOW makes the page containing addr writable in asid, copying its frame
// first if it is shared. It returns EFAULT if the page is not mapped, and
// ENOMEM if the copy cannot be allocated.
func (pt *PageTable) BreakCOW(asid platform.ASID, addr hostarch.Addr) (pgalloc.Frame, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	e := pt.findLocked(asid, addr.PageNumber())
	if e == nil {
		return 0, linuxerr.EFAULT
	}
	if e.writable {
		return e.frame, nil
	}
	if pt.mf.Refs(e.frame) > 1 {
		fr, err := pt.mf.Copy(e.frame)
		if err != nil {
			return 0, err
		}
		pt.mf.DecRef(e.frame)
		e.frame = fr
	}
	e.writable = true
	return e.frame, nil
}

// Write stores b at addr in asid, breaking copy-on-write as a write fault
// would. b must not cross a page boundary.
func (pt *PageTable) Write(asid platform.ASID, addr hostarch.Addr, b []byte) error {
	if addr.PageOffset()+uint64(len(b)) > hostarch.PageSize {
		return linuxerr.EINVAL
	}
	fr, err := pt.BreakCOW(asid, addr)
	if err != nil {
		return err
	}
	copy(pt.mf.Data(fr)[addr.PageOffset():], b)
	return nil
}

// Read copies len(b) bytes at addr in asid into b. b must not cross a page
// boundary.
func (pt *PageTable) Read(asid platform.ASID, addr hostarch.Addr, b []byte) error {
	if addr.PageOffset()+uint64(len(b)) > hostarch.PageSize {
		return linuxerr.EINVAL
	}
	t, ok := pt.Lookup(asid, addr)
	if !ok {
		return linuxerr.EFAULT
	}
	copy(b, pt.mf.Data(t.Frame)[addr.PageOffset():])
	return nil
}

// Frames returns the number of pages mapped by asid.
func (pt *PageTable) Frames(asid platform.ASID) int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	n := 0
	for _, b := range pt.buckets {
		for _, e := range b {
			if e.asid == asid {
				n++
			}
		}
	}
	return n
}

// Len returns the number of translations in the table.
func (pt *PageTable) Len() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.count
}
