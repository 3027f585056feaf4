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
	"bytes"
	"fmt"
	"strings"
)

// Maps returns the regions of as in the format of Linux's /proc/[pid]/maps.
// Regions are listed in set order, which for a stack region is not address
// order.
func (as *AddressSpace) Maps() string {
	var b bytes.Buffer
	as.regions.forEach(func(r *Region) bool {
		b.Write(regionMapsEntry(r))
		return true
	})
	return b.String()
}

// regionMapsEntry returns a /proc/[pid]/maps entry for r, including the
// trailing newline.
func regionMapsEntry(r *Region) []byte {
	var b bytes.Buffer
	rng := r.Range()
	fmt.Fprintf(&b, "%08x-%08x %sp %08x %02x:%02x %d ",
		uint64(rng.Start), uint64(rng.End), r.Perms, 0, 0, 0, 0)

	var s string
	switch {
	case r.Kind == Stack:
		s = "[stack]"
	case r.Heap:
		s = "[heap]"
	}
	if s != "" {
		// Per linux, we pad until the 74th character.
		if pad := 73 - b.Len(); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(s)
	}
	b.WriteString("\n")
	return b.Bytes()
}
