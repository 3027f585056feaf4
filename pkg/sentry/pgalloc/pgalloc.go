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

// Package pgalloc contains the physical frame allocator. Frames are
// reference counted so that they can be shared copy-on-write between address
// spaces; a frame returns to the free set when its last reference is dropped.
package pgalloc

import (
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/refs"
)

// Frame is a physical frame number.
type Frame uint32

// Addr returns the physical address of the first byte of f.
func (f Frame) Addr() uint64 {
	return uint64(f) << hostarch.PageShift
}

// frame is the state of one allocated frame.
type frame struct {
	refs.AtomicRefCount

	// data is the frame contents, hostarch.PageSize bytes.
	data []byte
}

// MemoryFile is the pool of physical frames.
//
// MemoryFile is safe for concurrent use.
type MemoryFile struct {
	nframes uint32

	mu sync.Mutex

	// free is the set of unallocated frame numbers. free is protected by mu.
	free *roaring.Bitmap

	// frames[f] is non-nil iff f is allocated. frames is protected by mu.
	frames []*frame
}

// NewMemoryFile returns a MemoryFile with nframes free frames.
func NewMemoryFile(nframes uint32) *MemoryFile {
	if nframes == 0 || nframes == math.MaxUint32 {
		panic(fmt.Sprintf("invalid frame count %d", nframes))
	}
	free := roaring.New()
	free.AddRange(0, uint64(nframes))
	return &MemoryFile{
		nframes: nframes,
		free:    free,
		frames:  make([]*frame, nframes),
	}
}

// Allocate returns a zeroed frame holding one reference. It returns ENOMEM if
// no frame is free.
func (f *MemoryFile) Allocate() (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.free.IsEmpty() {
		return 0, linuxerr.ENOMEM
	}
	fr := f.free.Minimum()
	f.free.Remove(fr)
	f.frames[fr] = &frame{data: make([]byte, hostarch.PageSize)}
	return Frame(fr), nil
}

// lookup returns the state of an allocated frame.
func (f *MemoryFile) lookup(fr Frame) *frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uint32(fr) >= f.nframes || f.frames[fr] == nil {
		panic(fmt.Sprintf("frame %d is not allocated", fr))
	}
	return f.frames[fr]
}

// IncRef takes an additional reference on fr.
func (f *MemoryFile) IncRef(fr Frame) {
	f.lookup(fr).IncRef()
}

// DecRef drops a reference on fr, freeing it when none remain.
func (f *MemoryFile) DecRef(fr Frame) {
	f.lookup(fr).DecRefWithDestructor(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.frames[fr] = nil
		f.free.Add(uint32(fr))
	})
}

// Refs returns the number of references held on fr, or zero if fr is free.
func (f *MemoryFile) Refs(fr Frame) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uint32(fr) >= f.nframes || f.frames[fr] == nil {
		return 0
	}
	return f.frames[fr].ReadRefs()
}

// Data returns the contents of fr. The returned slice aliases the frame.
func (f *MemoryFile) Data(fr Frame) []byte {
	return f.lookup(fr).data
}

// Copy allocates a new frame holding a copy of fr's contents.
func (f *MemoryFile) Copy(fr Frame) (Frame, error) {
	src := f.lookup(fr)
	dst, err := f.Allocate()
	if err != nil {
		return 0, err
	}
	copy(f.lookup(dst).data, src.data)
	return dst, nil
}

// Allocated returns the number of frames currently allocated.
func (f *MemoryFile) Allocated() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nframes - uint32(f.free.GetCardinality())
}
