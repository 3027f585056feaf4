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

package scenario

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"gvisor.dev/vmspace/pkg/errors"
	"gvisor.dev/vmspace/pkg/errors/linuxerr"
	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/mm"
)

// opFunc executes a step and returns its printable result.
type opFunc func(e *Env, s *Step) (string, error)

var ops map[string]opFunc

func init() {
	ops = map[string]opFunc{
		"create":        opCreate,
		"duplicate":     opDuplicate,
		"destroy":       opDestroy,
		"define_region": opDefineRegion,
		"define_stack":  opDefineStack,
		"mark_heap":     opMarkHeap,
		"begin_load":    opBeginLoad,
		"end_load":      opEndLoad,
		"map":           opMap,
		"write":         opWrite,
		"read":          opRead,
		"classify":      opClassify,
		"perms":         opPerms,
		"frames":        opFrames,
		"maps":          opMaps,
		"activate":      opActivate,
		"deactivate":    opDeactivate,
	}
}

// Run executes s on e, writing one line per step to w. It stops at the first
// step whose outcome does not match its expectation.
func (s *Scenario) Run(e *Env, w io.Writer) error {
	for i := range s.Steps {
		step := &s.Steps[i]
		out, err := runStep(e, step)
		if err := step.check(out, err); err != nil {
			return fmt.Errorf("%s: step %d (%s): %w", s.Name, i, step.Op, err)
		}
		if err != nil {
			out = "error " + errnoName(err)
		}
		fmt.Fprintf(w, "%s: %s", s.Name, step.Op)
		if step.Space != "" {
			fmt.Fprintf(w, " %s", step.Space)
		}
		if out != "" {
			fmt.Fprintf(w, ": %s", out)
		}
		fmt.Fprintln(w)
	}
	log.Debugf("scenario %q: %d steps, %d address spaces left", s.Name, len(s.Steps), e.Spaces())
	return nil
}

// runStep runs a single step. Invariant violations reported by a panic in the
// address space are returned as errors.
func runStep(e *Env, s *Step) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invariant violation: %v", r)
		}
	}()
	return ops[s.Op](e, s)
}

// check compares the outcome of s with its expectation.
func (s *Step) check(out string, err error) error {
	switch {
	case s.Err != "" && err == nil:
		return fmt.Errorf("succeeded with %q, want error %s", out, s.Err)
	case s.Err != "" && errnoName(err) != s.Err:
		return fmt.Errorf("got error %v, want %s", err, s.Err)
	case s.Err == "" && err != nil:
		return err
	case s.Err == "" && s.Expect != "" && out != s.Expect:
		return fmt.Errorf("got %q, want %q", out, s.Expect)
	}
	return nil
}

// errnoName returns the errno name of err, e.g. "ENOMEM", or its message if
// it carries no errno.
func errnoName(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		if name := unix.ErrnoName(e.Errno()); name != "" {
			return name
		}
	}
	return err.Error()
}

func (e *Env) space(name string) (*mm.AddressSpace, error) {
	as, ok := e.spaces[name]
	if !ok {
		return nil, fmt.Errorf("no address space %q: %w", name, linuxerr.ENOENT)
	}
	return as, nil
}

func (e *Env) newSpace(name string) error {
	if name == "" {
		return fmt.Errorf("address space needs a name: %w", linuxerr.EINVAL)
	}
	if _, ok := e.spaces[name]; ok {
		return fmt.Errorf("address space %q exists: %w", name, linuxerr.EEXIST)
	}
	return nil
}

func opCreate(e *Env, s *Step) (string, error) {
	if err := e.newSpace(s.Space); err != nil {
		return "", err
	}
	as, err := e.Manager.Create()
	if err != nil {
		return "", err
	}
	e.spaces[s.Space] = as
	return "", nil
}

func opDuplicate(e *Env, s *Step) (string, error) {
	if err := e.newSpace(s.Space); err != nil {
		return "", err
	}
	src, err := e.space(s.From)
	if err != nil {
		return "", err
	}
	as, err := e.Manager.Duplicate(src)
	if err != nil {
		return "", err
	}
	e.spaces[s.Space] = as
	return fmt.Sprintf("%d regions from %s", as.NumRegions(), s.From), nil
}

func opDestroy(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	delete(e.spaces, s.Space)
	return "", e.Manager.Destroy(as)
}

func opDefineRegion(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	perms, ok := hostarch.ParseAccessType(s.Perms)
	if !ok {
		return "", fmt.Errorf("invalid permissions %q: %w", s.Perms, linuxerr.EINVAL)
	}
	return "", as.DefineRegion(perms, hostarch.Addr(s.Addr), s.Length)
}

func opDefineStack(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	sp, err := as.DefineStack()
	if err != nil {
		return "", err
	}
	return sp.String(), nil
}

func opMarkHeap(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	return "", as.MarkHeap(hostarch.Addr(s.Addr))
}

func opBeginLoad(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	as.BeginLoad()
	return "", nil
}

func opEndLoad(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	as.EndLoad()
	return "", nil
}

func opMap(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	fr, err := e.PageTable.Map(as.ID(), hostarch.Addr(s.Addr), s.Writable)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("frame %d", fr), nil
}

func opWrite(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	return "", e.PageTable.Write(as.ID(), hostarch.Addr(s.Addr), []byte(s.Data))
}

func opRead(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	if s.Length > hostarch.PageSize {
		return "", fmt.Errorf("read of %d bytes: %w", s.Length, linuxerr.EINVAL)
	}
	buf := make([]byte, s.Length)
	if err := e.PageTable.Read(as.ID(), hostarch.Addr(s.Addr), buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func opClassify(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	return as.Classify(hostarch.Addr(s.Addr)).String(), nil
}

func opPerms(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	perms, err := as.PermissionsOf(hostarch.Addr(s.Addr))
	if err != nil {
		return "", err
	}
	return perms.String(), nil
}

func opFrames(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(e.PageTable.Frames(as.ID())), nil
}

func opMaps(e *Env, s *Step) (string, error) {
	as, err := e.space(s.Space)
	if err != nil {
		return "", err
	}
	return "\n" + strings.TrimSuffix(as.Maps(), "\n"), nil
}

// activeSpace returns the named space, or nil for a kernel-only thread if no
// name is given.
func (e *Env) activeSpace(name string) (*mm.AddressSpace, error) {
	if name == "" {
		return nil, nil
	}
	return e.space(name)
}

func opActivate(e *Env, s *Step) (string, error) {
	as, err := e.activeSpace(s.Space)
	if err != nil {
		return "", err
	}
	cpu := e.cpu(s.CPU)
	mm.Activate(cpu, as)
	return fmt.Sprintf("cpu%d flushes %d", s.CPU, cpu.Flushes()), nil
}

func opDeactivate(e *Env, s *Step) (string, error) {
	as, err := e.activeSpace(s.Space)
	if err != nil {
		return "", err
	}
	cpu := e.cpu(s.CPU)
	mm.Deactivate(cpu, as)
	return fmt.Sprintf("cpu%d flushes %d", s.CPU, cpu.Flushes()), nil
}
