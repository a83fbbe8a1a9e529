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

import "iter"

// All returns an iterator over the individual namespace flags in this flag
// set, in the canonical order mount, uts, ipc, user, net, and finally cgroup
// (if supported by the kernel). Flags not in the set are never yielded; bits
// without a registered namespace type, as well as [PID], are silently
// skipped. The iterator has no side effects and can be used multiple times.
func (s FlagSet) All() iter.Seq[Flag] {
	return func(yield func(Flag) bool) {
		for _, info := range registry {
			if s&FlagSet(info.flag) == 0 {
				continue
			}
			if info.optional && !Supported(info.flag) {
				continue
			}
			if !yield(info.flag) {
				return
			}
		}
	}
}

// Combine returns the FlagSet made from all flags yielded by the passed
// iterator.
func Combine(flags iter.Seq[Flag]) FlagSet {
	var s FlagSet
	for f := range flags {
		s |= FlagSet(f)
	}
	return s
}

// joinable returns an iterator over the flags in this set in the order in
// which the namespaces of a process get joined. In contrast to [FlagSet.All]
// this includes [PID] as well as optional types even when the kernel lacks
// support, so that explicitly requesting them fails in the kernel.
func (s FlagSet) joinable() iter.Seq[flagInfo] {
	return func(yield func(flagInfo) bool) {
		for _, info := range procOrder {
			if s&FlagSet(info.flag) == 0 {
				continue
			}
			if !yield(info) {
				return
			}
		}
	}
}
