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
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
)

// BeginLoad makes every region of as readable, writable and executable while
// an executable image is loaded into it, saving the current permissions.
//
// BeginLoad and EndLoad do not nest. If loading fails, the caller must still
// call EndLoad.
func (as *AddressSpace) BeginLoad() {
	as.regions.forEach(func(r *Region) bool {
		r.SavedPerms = r.Perms
		r.Perms = hostarch.AnyAccess
		return true
	})
	log.Debugf("mm: %v: begin load, %d regions relaxed", as, as.regions.len())
}

// EndLoad restores the permissions saved by BeginLoad.
func (as *AddressSpace) EndLoad() {
	as.regions.forEach(func(r *Region) bool {
		r.Perms = r.SavedPerms
		return true
	})
	log.Debugf("mm: %v: end load", as)
}

// DefineStack defines the user stack, a read-write Stack region ending at the
// stack top, and returns the initial stack pointer.
func (as *AddressSpace) DefineStack() (hostarch.Addr, error) {
	l := as.mgr.layout
	if err := as.defineRegion(hostarch.ReadWrite, l.StackTop, l.StackSize(), Stack, false); err != nil {
		return 0, err
	}
	return l.StackTop, nil
}
