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

package nstest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
	. "github.com/onsi/gomega"    //nolint:staticcheck // ST1001 rule does not apply
)

// transientTypes are the types of namespaces a thread can unshare and later
// leave again.
var transientTypes = []spaceport.Flag{
	spaceport.Cgroup,
	spaceport.IPC,
	spaceport.Net,
	spaceport.UTS,
}

// EnterTransient creates and enters a new namespace of the specified type,
// returning a function that needs to be defer'ed in order to switch the
// calling go routine and its locked OS-level thread back:
//
//	defer nstest.EnterTransient(spaceport.Net)()
//
// EnterTransient locks the caller's go routine to its OS-level thread and
// unlocks it when the deferred function gets called. If the thread cannot be
// switched back, the deferred function panics.
//
// EnterTransient supports cgroup, IPC, net, and UTS namespaces. For mount
// namespaces use [EnterTransientMount]. PID and user namespaces cannot be
// left again, use [spaceport.Clone] instead.
func EnterTransient(typ spaceport.Flag) func() {
	GinkgoHelper()

	Expect(typ).To(BeElementOf(transientTypes), "unsupported type %s", typ)

	runtime.LockOSThread()

	callersNamespace := openCurrent(typ)
	Expect(spaceport.Unshare(spaceport.Flags(typ))).Error().NotTo(HaveOccurred(),
		"cannot create new %s namespace", typ)

	// Our cleanup cannot be DeferCleanup'ed, because we need to restore the
	// current locked go routine, so that the defer rollback sequence is kept
	// correct.
	return func() {
		if _, err := spaceport.Setns(spaceport.Flags(typ), spaceport.ByFd(callersNamespace)); err != nil {
			panic(fmt.Sprintf("leaving from EnterTransient: cannot restore original %s namespace, reason: %s",
				typ, err.Error()))
		}
		_ = unix.Close(callersNamespace)
		runtime.UnlockOSThread()
	}
}

// NewTransient creates a new namespace of the specified type without entering
// it, returning a file descriptor referencing the new namespace. A Ginkgo
// DeferCleanup closes the file descriptor at the end of the current test, so
// the caller must not close it.
//
// NewTransient supports the same types as [EnterTransient].
func NewTransient(typ spaceport.Flag) int {
	GinkgoHelper()

	Expect(typ).To(BeElementOf(transientTypes), "unsupported type %s", typ)

	// if anything below breaks we won't unlock the OS-level thread on purpose
	// so that it gets thrown away as the unit test fails and unwinds.
	runtime.LockOSThread()

	callersNamespace := openCurrent(typ)
	defer func() { _ = unix.Close(callersNamespace) }()

	Expect(spaceport.Unshare(spaceport.Flags(typ))).Error().NotTo(HaveOccurred(),
		"cannot create new %s namespace", typ)
	newNamespace := openCurrent(typ)
	Expect(spaceport.Setns(spaceport.Flags(typ), spaceport.ByFd(callersNamespace))).Error().
		NotTo(HaveOccurred(), "cannot switch back into original %s namespace", typ)
	DeferCleanup(func() { _ = unix.Close(newNamespace) })

	runtime.UnlockOSThread()
	return newNamespace
}

// PersistTransient creates a new namespace of the specified type and persists
// it to a file in a temporary directory, returning the path of the persisted
// namespace. A Ginkgo DeferCleanup unpersists the namespace at the end of the
// current test.
func PersistTransient(typ spaceport.Flag) string {
	GinkgoHelper()

	nsfd := NewTransient(typ)
	path := filepath.Join(GinkgoT().TempDir(), typ.String())
	Expect(os.WriteFile(path, nil, 0o444)).To(Succeed(),
		"cannot create mount point for %s namespace", typ)
	// the new namespace has no process attached, so bind-mount it via the
	// procfs entry of its file descriptor.
	Expect(unix.Mount(fmt.Sprintf("/proc/self/fd/%d", nsfd), path, "none", unix.MS_BIND, "")).
		To(Succeed(), "cannot persist %s namespace", typ)
	DeferCleanup(func() {
		Expect(spaceport.Unpersist(path)).To(Succeed())
	})
	return path
}

// openCurrent returns an open file descriptor referencing the current
// namespace of the specified type of the calling OS-level thread.
func openCurrent(typ spaceport.Flag) int {
	GinkgoHelper()

	fd, err := unix.Open("/proc/thread-self/ns/"+typ.ProcName(), unix.O_RDONLY|unix.O_CLOEXEC, 0)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current %s namespace from procfs", typ)
	return fd
}
