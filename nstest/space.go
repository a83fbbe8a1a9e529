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

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
	. "github.com/onsi/gomega"    //nolint:staticcheck // ST1001 rule does not apply
)

// Avoid problems that would happen when we accidentally unshare the initial
// thread, so we lock it here, thus ensuring that other Go routines (and
// especially tests) won't ever get scheduled onto the initial thread anymore.
func init() {
	runtime.LockOSThread()
}

// Type returns the type of the namespace referenced either by a file
// descriptor or a VFS path name, failing the current test if the reference is
// invalid.
func Type[R spaceport.Reference](ref R) spaceport.Flag {
	GinkgoHelper()

	typ, err := spaceport.Type(ref)
	Expect(err).NotTo(HaveOccurred())
	return typ
}

// Ino returns the identification (inode number) of the passed namespace
// reference, failing the current test if the reference is invalid or doesn't
// reference a namespace of the specified type.
func Ino[R spaceport.Reference](ref R, typ spaceport.Flag) uint64 {
	GinkgoHelper()

	ino, err := spaceport.Ino(ref)
	Expect(err).NotTo(HaveOccurred(), "cannot stat %s namespace reference %v", typ, ref)
	Expect(Type(ref)).To(Equal(typ), "not a %s namespace", typ)
	return ino
}

// Current returns a file descriptor referencing the calling OS-level thread's
// current namespace of type “typ”, scheduling a DeferCleanup that closes the
// file descriptor at the end of the current test. The caller's go routine
// should be thread-locked.
func Current(typ spaceport.Flag) int {
	GinkgoHelper()

	name := typ.ProcName()
	Expect(name).NotTo(BeEmpty(), "unknown type of namespace %s", typ)
	nsfd, err := unix.Open("/proc/thread-self/ns/"+name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current %s namespace from procfs", typ)
	DeferCleanup(func() {
		_ = unix.Close(nsfd)
	})
	return nsfd
}

// CurrentIno returns the identification (inode number) for the namespace of
// the specified type the OS-level thread is currently attached to.
func CurrentIno(typ spaceport.Flag) uint64 {
	GinkgoHelper()

	return Ino("/proc/thread-self/ns/"+typ.ProcName(), typ)
}
