// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spaceport

import (
	"os"
	"sync"
)

var (
	capabilitiesOnce sync.Once
	capabilities     map[Flag]bool

	// probeNamespace reports whether the running kernel supports the namespace
	// type with the passed procfs name.
	probeNamespace = func(procname string) bool {
		_, err := os.Stat("/proc/self/ns/" + procname)
		return err == nil
	}
)

// Supported returns true if the running kernel supports the passed type of
// namespace. Only optional namespace types (cgroup) are actually probed, and
// only once per process; all other known types are always supported.
func Supported(f Flag) bool {
	capabilitiesOnce.Do(func() {
		capabilities = map[Flag]bool{}
		for _, info := range procOrder {
			capabilities[info.flag] = !info.optional || probeNamespace(info.procname)
		}
	})
	return capabilities[f]
}
