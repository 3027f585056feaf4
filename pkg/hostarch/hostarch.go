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

// Package hostarch describes the virtual memory geometry of the simulated
// machine: addresses, page sizes and access types.
package hostarch

const (
	// PageShift is the binary log of the page size.
	PageShift = 12

	// PageSize is the machine page size.
	PageSize = 1 << PageShift

	// PageMask is the mask of the in-page offset bits of an address.
	PageMask = PageSize - 1

	// MaxAddr is the largest representable virtual address.
	MaxAddr = Addr(^uint64(0))
)
