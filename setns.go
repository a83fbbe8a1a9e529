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
	"log/slog"
	"strconv"
)

// Target references the namespace(s) to join, either by an open file
// descriptor ([ByFd]) or by the PID of a process ([ByPid]).
type Target interface {
	join(n *Namespacer, flags FlagSet) (Status, error)
	String() string
}

// ByFd returns a Target referencing a namespace by an open file descriptor,
// such as an fd for a persisted namespace or “/proc/[PID]/ns/[type]”. The
// caller keeps ownership of fd.
func ByFd(fd int) Target { return fdTarget(fd) }

// ByPid returns a Target referencing the namespaces of the process with the
// specified PID. PID 0 refers to the calling OS-level thread.
func ByPid(pid int) Target { return pidTarget(pid) }

type fdTarget int

func (t fdTarget) String() string { return "fd " + strconv.Itoa(int(t)) }

// join the namespace referenced by the fd, leaving the fd open. The kernel
// checks that the namespace is of the type in flags, unless flags is zero.
func (t fdTarget) join(n *Namespacer, flags FlagSet) (Status, error) {
	if err := n.prims().Setns(int(t), flags); err != nil {
		err = &PrimitiveError{Op: "setns", Flags: flags, Path: t.String(), Err: err}
		n.Slog().Error("cannot join namespace",
			slog.Int("fd", int(t)),
			slog.String("type", flags.String()),
			slog.String("err", errText(err)))
		return Failed, err
	}
	n.Slog().Info("joined namespace",
		slog.Int("fd", int(t)),
		slog.String("type", flags.String()))
	return 0, nil
}

type pidTarget int

func (t pidTarget) String() string { return "pid " + strconv.Itoa(int(t)) }

// join the namespaces of the process for all types in flags, one after
// another, returning the number of namespaces joined.
func (t pidTarget) join(n *Namespacer, flags FlagSet) (Status, error) {
	joined := 0
	for info := range flags.joinable() {
		path := nsPath(int(t), info.procname)
		fd, err := n.prims().Open(path)
		if err != nil {
			err = &PrimitiveError{Op: "setns", Flags: FlagSet(info.flag), Path: path, Err: err}
			n.Slog().Error("cannot open namespace",
				slog.Int("pid", int(t)),
				slog.String("path", path),
				slog.String("err", errText(err)))
			return Failed, err
		}
		err = n.prims().Setns(fd, FlagSet(info.flag))
		_ = n.prims().Close(fd)
		if err != nil {
			err = &PrimitiveError{Op: "setns", Flags: FlagSet(info.flag), Path: path, Err: err}
			n.Slog().Error("cannot join namespace",
				slog.Int("pid", int(t)),
				slog.String("path", path),
				slog.String("err", errText(err)))
			return Failed, err
		}
		n.Slog().Info("joined namespace",
			slog.Int("pid", int(t)),
			slog.String("type", info.flag.String()))
		joined++
	}
	return Status(joined), nil
}

// Setns joins the namespace(s) referenced by target using the [DefaultNamespacer]
// Namespacer. See [Namespacer.Setns] for details.
func Setns(flags FlagSet, target Target) (Status, error) {
	return DefaultNamespacer.Setns(flags, target)
}

// Setns joins the calling OS-level thread to existing namespace(s).
//
// When target is [ByFd], Setns joins the single namespace referenced by the
// file descriptor; flags then is either zero or the type of the referenced
// namespace. The status is 0 on success.
//
// When target is [ByPid], Setns joins the namespaces of the types in flags
// belonging to the process. It joins them one after another (mount, uts,
// ipc, user, pid, net, cgroup) and stops at the first failure. The status is
// the number of namespaces joined.
//
// A nil target is a usage error.
func (n *Namespacer) Setns(flags FlagSet, target Target) (Status, error) {
	if target == nil {
		return Failed, &UsageError{Reason: "option fd or pid must be specified"}
	}
	return target.join(n, flags)
}
