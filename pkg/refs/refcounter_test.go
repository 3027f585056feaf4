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

package refs

import (
	"testing"
)

func TestRefCountDestructor(t *testing.T) {
	var r AtomicRefCount
	if got := r.ReadRefs(); got != 1 {
		t.Fatalf("zero value ReadRefs = %d, want 1", got)
	}
	r.IncRef()
	if got := r.ReadRefs(); got != 2 {
		t.Fatalf("ReadRefs after IncRef = %d, want 2", got)
	}

	destroyed := 0
	r.DecRefWithDestructor(func() { destroyed++ })
	if destroyed != 0 {
		t.Fatalf("destructor ran with a reference still held")
	}
	r.DecRefWithDestructor(func() { destroyed++ })
	if destroyed != 1 {
		t.Fatalf("destructor ran %d times, want 1", destroyed)
	}
	if got := r.ReadRefs(); got != 0 {
		t.Errorf("ReadRefs after release = %d, want 0", got)
	}
}

func TestDecRefPanicsBelowZero(t *testing.T) {
	var r AtomicRefCount
	r.DecRef()
	defer func() {
		if recover() == nil {
			t.Errorf("DecRef on a destroyed object did not panic")
		}
	}()
	r.DecRef()
}
