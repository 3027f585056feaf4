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
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/platform"
)

// Activate makes as the address space of the thread running on cpu. Stale
// translations of the previous address space are flushed from cpu's TLB.
//
// A nil as denotes a kernel-only thread, for which Activate does nothing.
func Activate(cpu platform.CPU, as *AddressSpace) {
	if as == nil {
		return
	}
	platform.WithInterruptsDisabled(cpu, cpu.FlushTLB)
	if log.IsLogging(log.Debug) {
		log.Debugf("mm: %v: activated", as)
	}
}

// Deactivate is called when the thread running on cpu stops using as. It
// flushes cpu's TLB like Activate.
func Deactivate(cpu platform.CPU, as *AddressSpace) {
	if as == nil {
		return
	}
	platform.WithInterruptsDisabled(cpu, cpu.FlushTLB)
}
