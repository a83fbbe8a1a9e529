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
	"cmp"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"

	"golang.org/x/sys/unix"
)

// Primitives are the raw kernel operations a [Namespacer] orchestrates.
type Primitives interface {
	// Unshare detaches the calling thread from its namespaces of the
	// specified types, in a single go.
	Unshare(flags FlagSet) error
	// Setns joins the namespace referenced by the open fd; flags is either
	// zero or the expected type of namespace.
	Setns(fd int, flags FlagSet) error
	// Open opens a namespace reference read-only.
	Open(path string) (int, error)
	// Close closes a previously opened namespace reference.
	Close(fd int) error
	// BindMount bind-mounts src onto the already existing dst.
	BindMount(src, dst string) error
	// Unmount lazily unmounts path.
	Unmount(path string) error
	// Start starts the passed command, honoring its clone flags.
	Start(cmd *exec.Cmd) error
}

// Kernel implements [Primitives] using the Linux kernel syscalls.
type Kernel struct{}

var _ Primitives = Kernel{}

func (Kernel) Unshare(flags FlagSet) error { return unix.Unshare(int(flags)) }

func (Kernel) Setns(fd int, flags FlagSet) error { return unix.Setns(fd, int(flags)) }

func (Kernel) Open(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
}

func (Kernel) Close(fd int) error { return unix.Close(fd) }

func (Kernel) BindMount(src, dst string) error {
	return unix.Mount(src, dst, "none", unix.MS_BIND, "")
}

func (Kernel) Unmount(path string) error { return unix.Unmount(path, unix.MNT_DETACH) }

func (Kernel) Start(cmd *exec.Cmd) error { return cmd.Start() }

// Namespacer carries out namespace operations using a set of [Primitives],
// logging what it does. The zero value is ready to use and works with the
// [Kernel] primitives and the default slog logger.
//
// Namespace operations act on the calling OS-level thread, so callers should
// lock their go routine to its thread using [runtime.LockOSThread] before
// unsharing or joining namespaces.
type Namespacer struct {
	Primitives Primitives
	Logger     *slog.Logger
}

// DefaultNamespacer is the Namespacer used by the package-level operations.
var DefaultNamespacer = &Namespacer{}

func (n *Namespacer) prims() Primitives {
	return cmp.Or[Primitives](n.Primitives, Kernel{})
}

// Slog returns the logger to use.
func (n *Namespacer) Slog() *slog.Logger {
	return cmp.Or(n.Logger, slog.Default())
}

// nsPath returns the procfs path of the namespace of the specified type for
// the process with the passed PID; PID 0 refers to the calling thread.
func nsPath(pid int, procname string) string {
	if pid == 0 {
		return "/proc/thread-self/ns/" + procname
	}
	return "/proc/" + strconv.Itoa(pid) + "/ns/" + procname
}

// errText is the text of err for use in log attributes; PrimitiveErrors get
// reduced to their underlying cause.
func errText(err error) string {
	var perr *PrimitiveError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	return err.Error()
}
