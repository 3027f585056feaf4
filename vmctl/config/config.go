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

// Package config provides basic infrastructure to set configuration settings
// for vmctl. Each setting is registered as a command line flag, and may also
// be given in a TOML file named by the --config flag. Flags set on the
// command line take precedence over the file.
package config

import (
	"fmt"
	"math"

	"gvisor.dev/vmspace/pkg/hostarch"
	"gvisor.dev/vmspace/pkg/log"
	"gvisor.dev/vmspace/pkg/sentry/mm"
)

// Config holds configuration that is not part of a scenario.
type Config struct {
	// ConfigFile is the path of a TOML file with settings, if any.
	ConfigFile string `flag:"config" toml:"-"`

	// StackTop is the user stack top. Addresses at or above it belong to
	// the kernel.
	StackTop uint64 `flag:"stack-top" toml:"stack_top"`

	// StackPages is the number of pages in a user stack.
	StackPages uint64 `flag:"stack-pages" toml:"stack_pages"`

	// Frames is the number of physical frames.
	Frames uint64 `flag:"frames" toml:"frames"`

	// PageTableSize is the capacity of the hashed page table.
	PageTableSize int `flag:"hpt-size" toml:"hpt_size"`

	// HeapLimit bounds the kernel heap charged for address space and region
	// records, in bytes. Zero means unbounded.
	HeapLimit uint64 `flag:"heap-limit" toml:"heap_limit"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// LogFormat is the log format for stderr: text, json or json-k8s.
	LogFormat string `flag:"log-format" toml:"log_format"`

	// DebugLog is the path of an additional log file. It may contain the
	// variables %COMMAND%, %PID% and %TIMESTAMP%.
	DebugLog string `flag:"debug-log" toml:"debug_log"`

	// DebugLogFormat is the log format for DebugLog.
	DebugLogFormat string `flag:"debug-log-format" toml:"debug_log_format"`
}

func (c *Config) validate() error {
	if err := c.Layout().Validate(); err != nil {
		return err
	}
	if c.Frames == 0 || c.Frames >= math.MaxUint32 {
		return fmt.Errorf("frames must be in [1, %d), got %d", uint64(math.MaxUint32), c.Frames)
	}
	if c.PageTableSize <= 0 {
		return fmt.Errorf("hpt-size must be positive, got %d", c.PageTableSize)
	}
	for _, f := range []string{c.LogFormat, c.DebugLogFormat} {
		switch f {
		case "text", "json", "json-k8s":
		default:
			return fmt.Errorf("invalid log format %q, must be 'text', 'json', or 'json-k8s'", f)
		}
	}
	return nil
}

// Layout returns the address space layout described by c.
func (c *Config) Layout() mm.Layout {
	return mm.Layout{
		StackTop:   hostarch.Addr(c.StackTop),
		StackPages: c.StackPages,
	}
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config.ConfigFile: %q", c.ConfigFile)
	log.Infof("Config.Layout: %v", c.Layout())
	log.Infof("Config.Frames: %d", c.Frames)
	log.Infof("Config.PageTableSize: %d", c.PageTableSize)
	log.Infof("Config.HeapLimit: %d", c.HeapLimit)
	log.Infof("Config.Debug: %t", c.Debug)
	log.Infof("Config.LogFormat: %s", c.LogFormat)
	log.Infof("Config.DebugLog: %q", c.DebugLog)
}
