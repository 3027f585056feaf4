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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"gvisor.dev/vmspace/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by the user, so be mindful of the format.
var ErrorLogger io.Writer = os.Stderr

// Errorf logs error to the log and to the error logger. It returns
// subcommands.ExitFailure for convenience with subcommand.Execute() methods:
//
//	return Errorf("Error: %v", err)
func Errorf(format string, args ...any) subcommands.ExitStatus {
	log.Warningf(format, args...)
	fmt.Fprintf(ErrorLogger, format+"\n", args...)
	return subcommands.ExitFailure
}

// Fatalf logs the same way as Errorf, and exits the process.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	os.Exit(128)
}
