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

package config

import (
	"flag"
	"fmt"
	"io"
	"reflect"

	"github.com/BurntSushi/toml"
	"gvisor.dev/vmspace/pkg/sentry/mm"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "path of a TOML file with settings. Flags given on the command line override it.")

	// Machine flags.
	flagSet.Uint64("stack-top", uint64(mm.DefaultStackTop), "user stack top; addresses at or above it belong to the kernel.")
	flagSet.Uint64("stack-pages", mm.DefaultStackPages, "number of pages in a user stack.")
	flagSet.Uint64("frames", 1024, "number of physical frames.")
	flagSet.Int("hpt-size", 4096, "capacity of the hashed page table, in translations.")
	flagSet.Uint64("heap-limit", 0, "kernel heap limit in bytes for address space and region records. 0 means unlimited.")

	// Debugging flags.
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("log-format", "text", "log format: text (default), json, or json-k8s.")
	flagSet.String("debug-log", "", "additional location for logs. The following variables are available: %TIMESTAMP%, %COMMAND%, %PID%.")
	flagSet.String("debug-log-format", "text", "log format: text (default), json, or json-k8s.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags and, if --config is set, from the named TOML file.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	// Start with every flag's value, which is its default unless set.
	flagSet.VisitAll(func(fl *flag.Flag) {
		conf.setFlag(fl)
	})
	if conf.ConfigFile != "" {
		md, err := toml.DecodeFile(conf.ConfigFile, conf)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %q: %w", conf.ConfigFile, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown settings in config file %q: %v", conf.ConfigFile, undecoded)
		}
		// Flags set explicitly win over the file.
		flagSet.Visit(func(fl *flag.Flag) {
			conf.setFlag(fl)
		})
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// setFlag copies the value of fl into the field tagged with its name, if any.
func (c *Config) setFlag(fl *flag.Flag) {
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		if name, ok := st.Field(i).Tag.Lookup("flag"); !ok || name != fl.Name {
			continue
		}
		getter, ok := fl.Value.(flag.Getter)
		if !ok {
			panic(fmt.Sprintf("flag %q does not implement flag.Getter", fl.Name))
		}
		obj.Field(i).Set(reflect.ValueOf(getter.Get()))
		return
	}
}

// WriteTOML writes c as a TOML file that NewFromFlags can read back.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
