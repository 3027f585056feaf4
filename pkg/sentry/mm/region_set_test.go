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
	"math/rand/v2"
	"slices"
	"testing"

	"gvisor.dev/vmspace/pkg/hostarch"
)

func TestRegionSetOverlapping(t *testing.T) {
	e := newTestEnv(t, 0)
	as := e.create(t)
	mustDefine(t, as, readExec, 0x10000, 2*hostarch.PageSize)
	mustDefine(t, as, readWrite, 0x20000, 0)
	if _, err := as.DefineStack(); err != nil {
		t.Fatalf("DefineStack got err %v want nil", err)
	}
	stack := as.Layout().StackRange()

	for _, tc := range []struct {
		name      string
		ar        hostarch.AddrRange
		wantStart hostarch.Addr
		want      bool
	}{
		{name: "below", ar: hostarch.AddrRange{Start: 0xf000, End: 0x10000}},
		{name: "first page", ar: hostarch.AddrRange{Start: 0xf000, End: 0x11000}, wantStart: 0x10000, want: true},
		{name: "last page", ar: hostarch.AddrRange{Start: 0x11fff, End: 0x12000}, wantStart: 0x10000, want: true},
		{name: "after", ar: hostarch.AddrRange{Start: 0x12000, End: 0x13000}},
		{name: "empty region", ar: hostarch.AddrRange{Start: 0x1f000, End: 0x21000}},
		{name: "empty range", ar: hostarch.AddrRange{Start: 0x11000, End: 0x11000}},
		{name: "stack bottom", ar: hostarch.AddrRange{Start: stack.Start - 1, End: stack.Start + 1}, wantStart: DefaultStackTop, want: true},
		{name: "above stack", ar: hostarch.AddrRange{Start: stack.End, End: stack.End + hostarch.PageSize}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := as.regions.overlapping(tc.ar)
			if got := r != nil; got != tc.want {
				t.Fatalf("overlapping(%v) got %v want overlap %t", tc.ar, r, tc.want)
			}
			if r != nil && r.Start != tc.wantStart {
				t.Errorf("overlapping(%v) got region at %v want %v", tc.ar, r.Start, tc.wantStart)
			}
		})
	}
}

// TestDefineRegionRandomSequences defines shuffled sequences of unaligned,
// disjoint requests and checks that the resulting set is ascending and page
// aligned, and that every region covers its request.
func TestDefineRegionRandomSequences(t *testing.T) {
	const (
		slots     = 32
		slotPages = 16
	)
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 50; iter++ {
		e := newTestEnv(t, 0)
		as := e.create(t)

		// Each request lives in its own slot, so normalized regions are
		// disjoint and have distinct starts.
		var reqs []hostarch.AddrRange
		for _, slot := range rng.Perm(slots)[:1+rng.IntN(slots)] {
			base := hostarch.Addr(slot*slotPages+1) * hostarch.PageSize
			addr := base + hostarch.Addr(rng.Uint64N(4*hostarch.PageSize))
			length := 1 + rng.Uint64N(8*hostarch.PageSize)
			mustDefine(t, as, readWrite, addr, length)
			reqs = append(reqs, hostarch.AddrRange{Start: addr, End: addr + hostarch.Addr(length)})
		}
		slices.SortFunc(reqs, func(a, b hostarch.AddrRange) int {
			switch {
			case a.Start < b.Start:
				return -1
			case a.Start > b.Start:
				return 1
			}
			return 0
		})

		rs := as.Regions()
		if len(rs) != len(reqs) {
			t.Fatalf("iteration %d: got %d regions want %d", iter, len(rs), len(reqs))
		}
		for i := range rs {
			r := &rs[i]
			if i > 0 && rs[i-1].Start >= r.Start {
				t.Errorf("iteration %d: region %d start %v not above previous %v", iter, i, r.Start, rs[i-1].Start)
			}
			if !r.Range().IsPageAligned() {
				t.Errorf("iteration %d: region %v is not page aligned", iter, r)
			}
			if !r.Range().IsSupersetOf(reqs[i]) {
				t.Errorf("iteration %d: region %v does not cover request %v", iter, r, reqs[i])
			}
		}
	}
}

func TestRegionsEqualStartFirstDefinedWins(t *testing.T) {
	e := newTestEnv(t, 0)
	as := e.create(t)
	mustDefine(t, as, readExec, 0x500000, hostarch.PageSize)
	mustDefine(t, as, readWrite, 0x500000, hostarch.PageSize)
	if got, err := as.PermissionsOf(0x500000); err != nil || got != readExec {
		t.Errorf("PermissionsOf(0x500000) got (%v, %v) want (%v, nil)", got, err, readExec)
	}
	if got := as.regions.overlapping(hostarch.AddrRange{Start: 0x500000, End: 0x501000}); got == nil || got.Perms != readExec {
		t.Errorf("overlapping got %v want the r-x region", got)
	}
}
