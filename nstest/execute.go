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
	"runtime"
	"slices"

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
	. "github.com/onsi/gomega"    //nolint:staticcheck // ST1001 rule does not apply
)

// pickupTypes are the types of namespaces a separate OS-level thread takes over
// from its caller unless explicitly told otherwise.
var pickupTypes = []spaceport.Flag{
	spaceport.Cgroup,
	spaceport.IPC,
	spaceport.Net,
	spaceport.PID,
	spaceport.UTS,
}

// Execute the passed fn synchronously while attached to the namespace(s)
// referenced by the specified file descriptors, otherwise defaulting to the
// caller's currently attached namespaces.
//
// Execute fails the current test when asked to switch into a different user
// namespace, as the kernel refuses this for multi-threaded processes.
//
// When a mount namespace is passed in, fn runs on a separate throw-away go
// routine locked to a throw-away OS-level thread, which otherwise gets attached
// to the caller's namespaces. Without a mount namespace fn runs on the caller's
// go routine, locked to its OS-level thread while fn runs.
func Execute(fn func(), nsfd int, nsfds ...int) {
	GinkgoHelper()

	mntnsfd := -1
	var othernsfds []int

	for _, nsfd := range append([]int{nsfd}, nsfds...) {
		switch typ := Type(nsfd); typ {
		case spaceport.User:
			Expect(typ).NotTo(Equal(spaceport.User), "cannot Execute() in different user namespace")
		case spaceport.Mount:
			mntnsfd = nsfd
		default:
			othernsfds = append(othernsfds, nsfd)
		}
	}

	if mntnsfd >= 0 {
		goSeparate(fn, mntnsfd, othernsfds...)
		return
	}
	goInAndOut(fn, othernsfds...)
}

// setns attaches the calling OS-level thread to the namespace referenced by
// nsfd, failing the current test otherwise.
func setns(nsfd int, typ spaceport.Flag, what string) {
	GinkgoHelper()

	Expect(spaceport.Setns(spaceport.Flags(typ), spaceport.ByFd(nsfd))).Error().
		NotTo(HaveOccurred(), "cannot %s %s namespace", what, typ)
}

// goInAndOut runs fn on the current go routine locked to its OS-level thread,
// temporarily switching into the specified namespaces while fn runs.
func goInAndOut(fn func(), othernsfds ...int) {
	GinkgoHelper()

	runtime.LockOSThread()

	type restore struct {
		fd  int
		typ spaceport.Flag
	}
	var callersNamespaces []restore
	defer func() {
		defer func() {
			for _, ns := range callersNamespaces {
				_ = unix.Close(ns.fd)
			}
		}()
		// when switching in failed, restore as good as possible and re-panic,
		// never unlocking the tainted OS-level thread.
		if r := recover(); r != nil {
			for _, ns := range slices.Backward(callersNamespaces) {
				_, _ = spaceport.Setns(0, spaceport.ByFd(ns.fd))
			}
			panic(r)
		}
		for _, ns := range slices.Backward(callersNamespaces) {
			setns(ns.fd, ns.typ, "restore")
		}
		runtime.UnlockOSThread()
	}()

	for _, nsfd := range othernsfds {
		typ := Type(nsfd)
		callersNamespaces = append(callersNamespaces, restore{fd: openCurrent(typ), typ: typ})
		setns(nsfd, typ, "switch into")
	}

	fn()
}

// goSeparate runs fn on a separate go routine locked to its OS-level thread
// with its own filesystem attributes, attached to the mount namespace mntnsfd.
// The thread gets attached to the namespaces in othernsfds and otherwise to the
// caller's namespaces.
func goSeparate(fn func(), mntnsfd int, othernsfds ...int) {
	GinkgoHelper()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pickups := slices.Clone(pickupTypes)
	for _, nsfd := range othernsfds {
		typ := Type(nsfd)
		pickups = slices.DeleteFunc(pickups, func(e spaceport.Flag) bool { return e == typ })
	}
	// the caller's thread might have been switched into transient namespaces,
	// so open these namespaces from the caller's thread, not some other one.
	var pickupfds []int
	for _, typ := range pickups {
		pickupfds = append(pickupfds, openCurrent(typ))
	}

	panicCh := make(chan any)
	go func() {
		defer func() {
			for _, nsfd := range pickupfds {
				_ = unix.Close(nsfd)
			}
			if r := recover(); r != nil {
				panicCh <- r
			}
			close(panicCh)
		}()

		runtime.LockOSThread()

		Expect(unix.Unshare(unix.CLONE_FS)).To(Succeed(),
			"cannot unshare file attributes of transient func call OS-level thread")
		setns(mntnsfd, spaceport.Mount, "switch into")

		for _, nsfd := range append(othernsfds, pickupfds...) {
			typ := Type(nsfd)
			if Ino(nsfd, typ) == CurrentIno(typ) {
				// switching into the same namespace might fail, for instance
				// for PID namespaces.
				continue
			}
			setns(nsfd, typ, "switch into")
		}

		fn()
	}()

	if r := <-panicCh; r != nil {
		panic(r)
	}
}
