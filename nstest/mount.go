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
	"runtime"

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
	. "github.com/onsi/gomega"    //nolint:staticcheck // ST1001 rule does not apply
)

// EnterTransientMount creates and enters a new mount namespace, returning a
// function that needs to be defer'ed. It additionally remounts “/” in the new
// mount namespace with private mount point propagation, so that mount point
// changes don't propagate back into the host.
//
// The current OS-level thread won't be unlocked when the returned function
// gets called, as unsharing the filesystem attributes (CLONE_FS) cannot be
// undone.
func EnterTransientMount() func() {
	GinkgoHelper()

	runtime.LockOSThread() // ...kind of point of no return

	callersMountNamespace := openCurrent(spaceport.Mount)
	privateMountNamespace()

	// Our cleanup cannot be DeferCleanup'ed, because we need to restore the
	// current locked go routine, so that the defer rollback sequence is kept
	// correct.
	return func() {
		if _, err := spaceport.Setns(0, spaceport.ByFd(callersMountNamespace)); err != nil {
			panic(fmt.Sprintf("cannot restore original mount namespace, reason: %s", err.Error()))
		}
		_ = unix.Close(callersMountNamespace)
		// do NOT unlock the OS-level thread, as we cannot undo unsharing CLONE_FS
	}
}

// NewTransientMount creates a new mount namespace with private “/” mount point
// propagation without entering it, returning a file descriptor referencing the
// new mount namespace as well as the procfs root path (“/proc/$TID/root”) to
// access the filesystem view of the new mount namespace.
//
// The new mount namespace is kept alive by an idle go routine locked to a
// throw-away OS-level thread; a Ginkgo DeferCleanup ends the idling at the end
// of the current test. The caller must not close the returned file descriptor.
func NewTransientMount() (mntnsfd int, procfsroot string) {
	GinkgoHelper()

	done := make(chan struct{})
	DeferCleanup(func() { close(done) })

	type idler struct {
		mntnsfd int
		tid     int
	}
	readyCh := make(chan idler)
	go func() {
		defer GinkgoRecover()
		runtime.LockOSThread()
		// unblock the receiver even when failing, passing the zero value.
		defer close(readyCh)

		privateMountNamespace()
		readyCh <- idler{
			mntnsfd: Current(spaceport.Mount),
			tid:     unix.Gettid(),
		}

		<-done // ...idle around, then fall off the discworld...
	}()
	details := <-readyCh
	Expect(details.mntnsfd).NotTo(BeZero(), "cannot create new mount namespace")
	return details.mntnsfd, fmt.Sprintf("/proc/%d/root", details.tid)
}

// MountSysfsRO mounts a fresh sysfs instance read-only onto /sys, in order to
// show the network interfaces of the current network namespace. It fails the
// current test when the calling OS-level thread still is attached to the
// process's original mount namespace.
func MountSysfsRO() {
	GinkgoHelper()

	// Never overmount the host's /sys.
	Expect(CurrentIno(spaceport.Mount)).NotTo(Equal(Ino("/proc/self/ns/mnt", spaceport.Mount)),
		"current mount namespace must not be the process's original mount namespace")

	Expect(unix.Mount(
		"none", "/sys", "sysfs",
		unix.MS_RDONLY|unix.MS_NODEV|unix.MS_NOEXEC|unix.MS_NOSUID|unix.MS_RELATIME,
		"")).To(Succeed(),
		"cannot mount new sysfs instance on /sys")
}

// privateMountNamespace unshares the filesystem attributes and the mount
// namespace of the calling OS-level thread, making “/” private in the new
// mount namespace.
func privateMountNamespace() {
	GinkgoHelper()

	Expect(unix.Unshare(unix.CLONE_FS)).To(Succeed(),
		"cannot unshare filesystem attributes")
	Expect(spaceport.Unshare(spaceport.Flags(spaceport.Mount))).Error().NotTo(HaveOccurred(),
		"cannot create new mount namespace")
	Expect(unix.Mount("none", "/", "/", unix.MS_REC|unix.MS_PRIVATE, "")).To(Succeed(),
		"cannot change / mount propagation to private")
}
