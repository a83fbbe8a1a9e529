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

package uds

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

// nsIno returns the inode number of the namespace (or other file) referenced
// by fd.
func nsIno(fd int) uint64 {
	GinkgoHelper()

	var st unix.Stat_t
	Expect(unix.Fstat(fd, &st)).To(Succeed())
	return st.Ino
}

var _ = Describe("unix domain sockets", func() {

	BeforeEach(func() {
		goodfds := Filedescriptors()
		DeferCleanup(func() {
			Eventually(Filedescriptors).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeakedFds(goodfds))
		})
	})

	When("turning a file descriptor into a Conn", func() {

		It("returns a Conn without leaking fds", func() {
			goodfds := Filedescriptors()
			DeferCleanup(func() {
				Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
			})

			fdpair := Successful(unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0))
			Expect(unix.Close(fdpair[1])).To(Succeed())
			conn := Successful(FromFd(fdpair[0], "parent"))
			Expect(conn.Close()).To(Succeed())
		})

		It("returns an error when the passed fd is bonkers", func() {
			Expect(FromFd(-1, "nada")).Error().To(MatchError(
				ContainSubstring("not a file descriptor")))

			filefd := Successful(unix.Open("/proc/self/ns/net", unix.O_RDONLY, 0))
			Expect(FromFd(filefd, "nada")).Error().To(MatchError(
				ContainSubstring("socket operation on non-socket")))

			udpsockfd := Successful(unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0))
			Expect(FromFd(udpsockfd, "nada")).Error().To(MatchError(ErrNoSocket))
		})

	})

	When("passing namespace references", func() {

		It("succeeds", func() {
			parent, child := Successful2R(Pair())
			defer func() {
				_ = parent.Close()
				_ = child.Close()
			}()

			netnsfd := Successful(unix.Open("/proc/self/ns/net", unix.O_RDONLY, 0))
			defer func() { _ = unix.Close(netnsfd) }()
			utsnsfd := Successful(unix.Open("/proc/self/ns/uts", unix.O_RDONLY, 0))
			defer func() { _ = unix.Close(utsnsfd) }()
			go func() {
				defer GinkgoRecover()
				Expect(child.Send([]byte("ns"), netnsfd, utsnsfd)).To(Succeed())
			}()

			Expect(parent.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
			buff := make([]byte, 16)
			n, fds := Successful2R(parent.Receive(buff, 16))
			defer closeAll(fds)
			Expect(string(buff[:n])).To(Equal("ns"))
			Expect(fds).To(HaveLen(2))
			Expect(fds).NotTo(ContainElements(netnsfd, utsnsfd))
			Expect(nsIno(fds[0])).To(Equal(nsIno(netnsfd)))
			Expect(nsIno(fds[1])).To(Equal(nsIno(utsnsfd)))
		})

		It("receives data without any fds", func() {
			parent, child := Successful2R(Pair())
			defer func() {
				_ = parent.Close()
				_ = child.Close()
			}()

			go func() {
				defer GinkgoRecover()
				Expect(child.Send([]byte("nada"))).To(Succeed())
			}()
			buff := make([]byte, 16)
			n, fds := Successful2R(parent.Receive(buff, 4))
			Expect(n).To(Equal(4))
			Expect(fds).To(BeNil())
		})

		It("returns an error when nothing arrives", func() {
			parent, child := Successful2R(Pair())
			defer func() {
				_ = parent.Close()
				_ = child.Close()
			}()

			Expect(parent.SetReadDeadline(time.Now().Add(1 * time.Second))).To(Succeed())
			Expect(parent.Receive(make([]byte, 1), 1)).Error().To(MatchError(os.ErrDeadlineExceeded))
		})

		It("skips other control messages", func() {
			parent, child := Successful2R(Pair())
			defer func() {
				_ = parent.Close()
				_ = child.Close()
			}()

			// receiving SCM_CREDENTIALS needs to be enabled on the socket
			// first, see also https://github.com/golang/go/issues/36293.
			Expect(Successful(parent.SyscallConn()).Control(func(fd uintptr) {
				Expect(unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_PASSCRED, 1)).To(Succeed())
			})).To(Succeed())
			go func() {
				defer GinkgoRecover()
				oob := unix.UnixCredentials(&unix.Ucred{
					Pid: int32(os.Getpid()),
					Uid: uint32(os.Getuid()),
					Gid: uint32(os.Getgid()),
				})
				_, noob, err := child.WriteMsgUnix([]byte{42}, oob, nil)
				Expect(noob).To(Equal(len(oob)))
				Expect(err).NotTo(HaveOccurred())
			}()

			_, fds, err := parent.Receive(make([]byte, 1), 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(fds).To(BeNil())
		})

	})

})
