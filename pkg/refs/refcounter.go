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

// Package refs provides reference counting for objects shared between
// owners, such as physical frames mapped copy-on-write by several address
// spaces.
package refs

import (
	"fmt"
	"sync/atomic"
)

// AtomicRefCount is a reference count that runs a destructor when the last
// reference is dropped.
//
// The zero value holds one reference, owned by whoever created the object.
type AtomicRefCount struct {
	// extra is the number of references minus one. It is -1 once the object
	// has been released.
	extra atomic.Int64
}

// ReadRefs returns the current number of references. The result is only
// stable if the caller prevents concurrent IncRef and DecRef calls.
func (r *AtomicRefCount) ReadRefs() int64 {
	return r.extra.Load() + 1
}

// IncRef takes an additional reference.
//
// Precondition: the caller holds a reference.
func (r *AtomicRefCount) IncRef() {
	if v := r.extra.Add(1); v <= 0 {
		panic(fmt.Sprintf("IncRef on released object, refs now %d", v+1))
	}
}

// DecRefWithDestructor drops a reference and calls destroy, if non-nil, when
// it was the last one.
func (r *AtomicRefCount) DecRefWithDestructor(destroy func()) {
	switch v := r.extra.Add(-1); {
	case v < -1:
		panic(fmt.Sprintf("DecRef on released object, refs now %d", v+1))
	case v == -1 && destroy != nil:
		destroy()
	}
}

// DecRef drops a reference.
func (r *AtomicRefCount) DecRef() {
	r.DecRefWithDestructor(nil)
}
