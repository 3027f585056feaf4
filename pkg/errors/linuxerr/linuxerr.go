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

// Package linuxerr contains kernel error codes exported as error interface
// pointers. This allows for fast comparison and return operations comperable
// to unix.Errno constants.
package linuxerr

import (
	stderrors "errors"

	"golang.org/x/sys/unix"
	"gvisor.dev/vmspace/pkg/errors"
)

// The following errors are semantically identical to Errno of type
// unix.Errno. Since the types are distinct (these are *errors.Error), they are
// not directly comparable; the Errno method returns a value that is
// (e.g. ENOMEM.Errno() == unix.ENOMEM is true).
var (
	noError *errors.Error = nil
	ENOENT                = errors.New(unix.ENOENT, "no such file or directory")
	ENOMEM                = errors.New(unix.ENOMEM, "out of memory")
	EFAULT                = errors.New(unix.EFAULT, "bad address")
	EBUSY                 = errors.New(unix.EBUSY, "device or resource busy")
	EEXIST                = errors.New(unix.EEXIST, "file exists")
	EINVAL                = errors.New(unix.EINVAL, "invalid argument")
	ERANGE                = errors.New(unix.ERANGE, "math result not representable")
)

var errorSlice = []*errors.Error{
	unix.ENOENT: ENOENT,
	unix.ENOMEM: ENOMEM,
	unix.EFAULT: EFAULT,
	unix.EBUSY:  EBUSY,
	unix.EEXIST: EEXIST,
	unix.EINVAL: EINVAL,
	unix.ERANGE: ERANGE,
}

// ErrorFromUnix returns a linuxerr from a unix.Errno.
func ErrorFromUnix(err unix.Errno) error {
	if err == unix.Errno(0) {
		return nil
	}
	if int(err) < len(errorSlice) {
		if e := errorSlice[err]; e != nil {
			return e
		}
	}
	return errors.New(err, err.Error())
}

// ToUnix converts an *errors.Error to a unix.Errno. A nil error is mapped to
// 0.
func ToUnix(e *errors.Error) unix.Errno {
	if e == noError {
		return 0
	}
	return e.Errno()
}

// Equals compares a linuxerr to a given error. Errors wrapped with %w are
// unwrapped.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == nil
	}
	if e == nil {
		return false
	}
	switch other := err.(type) {
	case *errors.Error:
		return e.Errno() == other.Errno()
	case unix.Errno:
		return e.Errno() == other
	}
	var wrapped *errors.Error
	if stderrors.As(err, &wrapped) {
		return e.Errno() == wrapped.Errno()
	}
	return false
}
