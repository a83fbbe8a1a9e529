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
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Flag identifies a single type of Linux kernel namespace. The flag values are
// exactly the CLONE_NEW* bit values the kernel expects in [clone(2)],
// [unshare(2)], and [setns(2)].
//
// [clone(2)]: https://man7.org/linux/man-pages/man2/clone.2.html
// [unshare(2)]: https://man7.org/linux/man-pages/man2/unshare.2.html
// [setns(2)]: https://man7.org/linux/man-pages/man2/setns.2.html
type Flag uint64

// The types of namespaces known to spaceport.
const (
	Mount  Flag = unix.CLONE_NEWNS
	UTS    Flag = unix.CLONE_NEWUTS
	IPC    Flag = unix.CLONE_NEWIPC
	User   Flag = unix.CLONE_NEWUSER
	Net    Flag = unix.CLONE_NEWNET
	PID    Flag = unix.CLONE_NEWPID
	Cgroup Flag = unix.CLONE_NEWCGROUP
)

// FlagSet is the bitwise OR of zero or more namespace [Flag] values.
type FlagSet uint64

// Flags returns the FlagSet combining the passed flags.
func Flags(flags ...Flag) FlagSet {
	var s FlagSet
	for _, f := range flags {
		s |= FlagSet(f)
	}
	return s
}

// Has returns true if the passed flag is part of this flag set.
func (s FlagSet) Has(f Flag) bool {
	return f != 0 && s&FlagSet(f) == FlagSet(f)
}

// String returns the flag set in textual form, such as “mount|uts”. Bits
// without a known namespace type are rendered in hex.
func (s FlagSet) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	rest := s
	for _, info := range procOrder {
		if s&FlagSet(info.flag) == 0 {
			continue
		}
		names = append(names, info.flag.String())
		rest &^= FlagSet(info.flag)
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint64(rest)))
	}
	return strings.Join(names, "|")
}

// flagInfo describes a single registered type of namespace: its flag, the
// canonical name used when persisting, and the name of its entry in
// “/proc/[PID]/ns/”. Optional namespace types are only registered when the
// running kernel supports them.
type flagInfo struct {
	flag     Flag
	name     string
	procname string
	optional bool
}

// registry lists the namespace types that can be iterated over, in canonical
// order. PID namespaces are deliberately absent: the PID namespace of the
// calling thread never changes by unsharing, only the one for its children.
var registry = []flagInfo{
	{flag: Mount, name: "mount", procname: "mnt"},
	{flag: UTS, name: "uts", procname: "uts"},
	{flag: IPC, name: "ipc", procname: "ipc"},
	{flag: User, name: "user", procname: "user"},
	{flag: Net, name: "net", procname: "net"},
	{flag: Cgroup, name: "cgroup", procname: "cgroup", optional: true},
}

// procOrder is the order in which namespaces of a process get joined.
var procOrder = []flagInfo{
	registry[0], // mount
	registry[1], // uts
	registry[2], // ipc
	registry[3], // user
	{flag: PID, procname: "pid"},
	registry[4], // net
	registry[5], // cgroup
}

// Name returns the canonical name of this namespace type, such as “mount” or
// “net”. If the flag is zero, a combination of flags, unknown, a PID flag, or
// not supported by the running kernel, then Name returns false instead.
func (f Flag) Name() (string, bool) {
	for _, info := range registry {
		if info.flag != f {
			continue
		}
		if info.optional && !Supported(f) {
			return "", false
		}
		return info.name, true
	}
	return "", false
}

// ProcName returns the name of the namespace entry in “/proc/[PID]/ns/”, such
// as “mnt”. It returns an empty string for an unknown flag.
func (f Flag) ProcName() string {
	for _, info := range procOrder {
		if info.flag == f {
			return info.procname
		}
	}
	return ""
}

// String returns the canonical name, falling back to the procfs name, or
// otherwise the flag's value in hex.
func (f Flag) String() string {
	if name, ok := f.Name(); ok {
		return name
	}
	if name := f.ProcName(); name != "" {
		return name
	}
	return fmt.Sprintf("%#x", uint64(f))
}

// ParseFlag returns the Flag for the passed name, accepting both canonical
// names (“mount”) and procfs names (“mnt”).
func ParseFlag(name string) (Flag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, info := range procOrder {
		if name == info.procname || (info.name != "" && name == info.name) {
			return info.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown type of namespace %q", name)
}

// ParseFlagSet returns the FlagSet for a list of comma and/or “|” separated
// namespace type names, such as “mount,uts|net”.
func ParseFlagSet(names string) (FlagSet, error) {
	var s FlagSet
	for _, name := range strings.FieldsFunc(names, func(r rune) bool {
		return r == ',' || r == '|'
	}) {
		f, err := ParseFlag(name)
		if err != nil {
			return 0, err
		}
		s |= FlagSet(f)
	}
	return s, nil
}
