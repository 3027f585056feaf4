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

package hpt

import (
	"testing"

	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/sentry/pgalloc"
	"gvisor.dev/vmspace/pkg/sentry/platform"
)

func newTestTable(t *testing.T, frames uint32, capacity int) (*PageTable, *pgalloc.MemoryFile) {
	t.Helper()
	mf := pgalloc.NewMemoryFile(frames)
	return New(mf, capacity), mf
}

func TestMapLookup(t *testing.T) {
	pt, mf := newTestTable(t, 4, 16)
	as := platform.NewASID()

	fr, err := pt.Map(as, 0x400123, true)
	if err != nil {
		t.Fatalf("Map got err %v want nil", err)
	}
	got, ok := pt.Lookup(as, 0x400fff)
	if !ok || got.Frame != fr || !got.Writable {
		t.Errorf("Lookup got (%+v, %t) want ({Frame:%d Writable:true}, true)", got, ok, fr)
	}
	if _, ok := pt.Lookup(as, 0x401000); ok {
		t.Errorf("Lookup of unmapped page succeeded")
	}
	if _, ok := pt.Lookup(platform.NewASID(), 0x400000); ok {
		t.Errorf("Lookup in another address space succeeded")
	}
	if _, err := pt.Map(as, 0x400000, false); !linuxerr.Equals(linuxerr.EEXIST, err) {
		t.Errorf("second Map got err %v want EEXIST", err)
	}
	if got := mf.Allocated(); got != 1 {
		t.Errorf("Allocated got %d want 1", got)
	}
}

func TestMapTableFull(t *testing.T) {
	pt, mf := newTestTable(t, 8, 2)
	as := platform.NewASID()
	for i := 0; i < 2; i++ {
		if _, err := pt.Map(as, hostarch.Addr(i)*hostarch.PageSize, true); err != nil {
			t.Fatalf("Map %d got err %v want nil", i, err)
		}
	}
	if _, err := pt.Map(as, 2*hostarch.PageSize, true); !linuxerr.Equals(linuxerr.ENOMEM, err) {
		t.Fatalf("Map into full table got err %v want ENOMEM", err)
	}
	if got := mf.Allocated(); got != 2 {
		t.Errorf("Allocated got %d want 2, frame leaked by failed Map", got)
	}
}

func TestDuplicateCopyOnWrite(t *testing.T) {
	pt, mf := newTestTable(t, 8, 16)
	parent := platform.NewASID()
	child := platform.NewASID()

	if _, err := pt.Map(parent, 0x1000, true); err != nil {
		t.Fatalf("Map got err %v want nil", err)
	}
	if err := pt.Write(parent, 0x1000, []byte("parent")); err != nil {
		t.Fatalf("Write got err %v want nil", err)
	}
	if err := pt.DuplicateFrames(child, parent); err != nil {
		t.Fatalf("DuplicateFrames got err %v want nil", err)
	}

	p, _ := pt.Lookup(parent, 0x1000)
	c, ok := pt.Lookup(child, 0x1000)
	if !ok {
		t.Fatalf("child has no mapping after DuplicateFrames")
	}
	if p.Frame != c.Frame || p.Writable || c.Writable {
		t.Fatalf("after DuplicateFrames got parent %+v child %+v, want one shared read-only frame", p, c)
	}
	if got := mf.Refs(p.Frame); got != 2 {
		t.Errorf("Refs of shared frame got %d want 2", got)
	}

	if err := pt.Write(child, 0x1000, []byte("child!")); err != nil {
		t.Fatalf("child Write got err %v want nil", err)
	}
	buf := make([]byte, 6)
	if err := pt.Read(parent, 0x1000, buf); err != nil || string(buf) != "parent" {
		t.Errorf("parent Read got (%q, %v) want (\"parent\", nil)", buf, err)
	}
	if err := pt.Read(child, 0x1000, buf); err != nil || string(buf) != "child!" {
		t.Errorf("child Read got (%q, %v) want (\"child!\", nil)", buf, err)
	}
	if got := mf.Allocated(); got != 2 {
		t.Errorf("Allocated got %d want 2", got)
	}

	// The parent is now the sole owner and regains write access in place.
	fr, err := pt.BreakCOW(parent, 0x1000)
	if err != nil || fr != p.Frame {
		t.Errorf("BreakCOW got (%d, %v) want (%d, nil)", fr, err, p.Frame)
	}
}

func TestDuplicateTableFull(t *testing.T) {
	pt, mf := newTestTable(t, 8, 3)
	parent := platform.NewASID()
	child := platform.NewASID()
	for i := 0; i < 2; i++ {
		if _, err := pt.Map(parent, hostarch.Addr(i)*hostarch.PageSize, true); err != nil {
			t.Fatalf("Map %d got err %v want nil", i, err)
		}
	}
	if err := pt.DuplicateFrames(child, parent); !linuxerr.Equals(linuxerr.ENOMEM, err) {
		t.Fatalf("DuplicateFrames got err %v want ENOMEM", err)
	}
	if err := pt.PurgeFrames(child); err != nil {
		t.Fatalf("PurgeFrames got err %v want nil", err)
	}
	if got := pt.Frames(child); got != 0 {
		t.Errorf("Frames(child) got %d want 0", got)
	}
	if err := pt.PurgeFrames(parent); err != nil {
		t.Fatalf("PurgeFrames got err %v want nil", err)
	}
	if got := mf.Allocated(); got != 0 {
		t.Errorf("Allocated got %d want 0 after purging both spaces", got)
	}
}

func TestPurgeReleasesFrames(t *testing.T) {
	pt, mf := newTestTable(t, 8, 16)
	a := platform.NewASID()
	b := platform.NewASID()
	for i := 0; i < 3; i++ {
		if _, err := pt.Map(a, hostarch.Addr(i)*hostarch.PageSize, true); err != nil {
			t.Fatalf("Map got err %v want nil", err)
		}
	}
	if _, err := pt.Map(b, 0, true); err != nil {
		t.Fatalf("Map got err %v want nil", err)
	}
	if err := pt.PurgeFrames(a); err != nil {
		t.Fatalf("PurgeFrames got err %v want nil", err)
	}
	if got := pt.Frames(a); got != 0 {
		t.Errorf("Frames(a) got %d want 0", got)
	}
	if got := pt.Frames(b); got != 1 {
		t.Errorf("Frames(b) got %d want 1", got)
	}
	if got := pt.Len(); got != 1 {
		t.Errorf("Len got %d want 1", got)
	}
	if got := mf.Allocated(); got != 1 {
		t.Errorf("Allocated got %d want 1", got)
	}
}

func TestBreakCOWUnmapped(t *testing.T) {
	pt, _ := newTestTable(t, 1, 1)
	if _, err := pt.BreakCOW(platform.NewASID(), 0); !linuxerr.Equals(linuxerr.EFAULT, err) {
		t.Errorf("BreakCOW got err %v want EFAULT", err)
	}
	if err := pt.Write(platform.NewASID(), hostarch.PageSize-1, []byte("xy")); !linuxerr.Equals(linuxerr.EINVAL, err) {
		t.Errorf("page-crossing Write got err %v want EINVAL", err)
	}
}
