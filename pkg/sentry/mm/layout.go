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

	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
)

// Layout is the fixed user address space layout shared by all address spaces
// of a Manager.
type Layout struct {
	// StackTop is the initial user stack pointer. User addresses are below
	// StackTop.
	StackTop hostarch.Addr

	// StackPages is the size of the user stack in pages.
	StackPages uint64
}

// DefaultLayout returns the default layout.
func DefaultLayout() Layout {
	return Layout{
		StackTop:   DefaultStackTop,
		StackPages: DefaultStackPages,
	}
}

// StackSize returns the size of the user stack in bytes.
func (l Layout) StackSize() uint64 {
	return l.StackPages * hostarch.PageSize
}

// StackRange returns the addresses occupied by the user stack.
func (l Layout) StackRange() hostarch.AddrRange {
	return hostarch.AddrRange{Start: l.StackTop - hostarch.Addr(l.StackSize()), End: l.StackTop}
}

// Validate returns EINVAL if l is not a usable layout.
func (l Layout) Validate() error {
	if !l.StackTop.IsPageAligned() || l.StackTop == 0 {
		return fmt.Errorf("stack top %#x is not a non-zero page-aligned address: %w", uint64(l.StackTop), linuxerr.EINVAL)
	}
	if l.StackPages == 0 || l.StackPages > uint64(l.StackTop)/hostarch.PageSize {
		return fmt.Errorf("%d stack pages do not fit below %#x: %w", l.StackPages, uint64(l.StackTop), linuxerr.EINVAL)
	}
	return nil
}

// String implements fmt.Stringer.String.
func (l Layout) String() string {
	return fmt.Sprintf("stack %v (%d pages)", l.StackRange(), l.StackPages)
}
