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
	"github.com/google/btree"
	"gvisor.dev/vmspace/pkg/hostarch"
)

// regionSetDegree is the btree degree of a regionSet. Processes have few
// regions, so nodes are kept small.
const regionSetDegree = 4

// regionSet is the set of regions owned by an address space, ordered by
// ascending start address and, among regions with the same start, by
// insertion.
//
// Regions are expected not to overlap, but the set does not check this.
type regionSet struct {
	tree *btree.BTreeG[*Region]

	// nextSeq is the insertion sequence number of the next region.
	nextSeq uint64
}

func regionLess(a, b *Region) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.seq < b.seq
}

func newRegionSet() regionSet {
	return regionSet{tree: btree.NewG(regionSetDegree, regionLess)}
}

// insert adds r after every region ordered before or equal to it.
func (s *regionSet) insert(r *Region) {
	r.seq = s.nextSeq
	s.nextSeq++
	s.tree.ReplaceOrInsert(r)
}

// forEach calls fn on each region in order until fn returns false.
func (s *regionSet) forEach(fn func(r *Region) bool) {
	s.tree.Ascend(fn)
}

// find returns the first region containing addr, or nil.
func (s *regionSet) find(addr hostarch.Addr) *Region {
	var found *Region
	s.forEach(func(r *Region) bool {
		if r.Contains(addr) {
			found = r
			return false
		}
		return true
	})
	return found
}

// overlapping returns the first region whose footprint shares an address with
// ar, or nil. Empty regions and ranges overlap nothing.
func (s *regionSet) overlapping(ar hostarch.AddrRange) *Region {
	if ar.Start == ar.End {
		return nil
	}
	var found *Region
	s.forEach(func(r *Region) bool {
		if r.Length != 0 && r.Range().Overlaps(ar) {
			found = r
			return false
		}
		return true
	})
	return found
}

// len returns the number of regions in s.
func (s *regionSet) len() int {
	return s.tree.Len()
}

// removeAll empties s and returns the number of regions removed.
func (s *regionSet) removeAll() int {
	n := s.tree.Len()
	s.tree.Clear(false)
	return n
}
