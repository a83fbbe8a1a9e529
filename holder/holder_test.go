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

package holder

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/thediveo/safe"
	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

var _ = Describe("namespace holder", func() {

	It("rejects invalid options", func(ctx context.Context) {
		Expect(New(ctx, spaceport.Flags(spaceport.Net), WithLogger(nil))).Error().To(
			MatchError("nil logger"))
	})

	When("holding namespaces", Ordered, func() {

		BeforeAll(func() {
			if os.Getuid() != 0 {
				Skip("needs root")
			}
		})

		BeforeEach(func() {
			goodfds := Filedescriptors()
			goodgos := Goroutines()
			DeferCleanup(func() {
				Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
					ShouldNot(HaveLeaked(goodgos))
				Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
			})
		})

		It("holds new user, PID, and net namespaces", func(ctx context.Context) {
			var stderr safe.Buffer
			h := Successful(New(ctx,
				spaceport.Flags(spaceport.User, spaceport.PID, spaceport.Net),
				WithStdout(GinkgoWriter), WithStderr(&stderr)))
			defer func() { Expect(h.Close()).To(Succeed()) }()
			Expect(h.PID()).To(BeNumerically(">", 0))
			Expect(h.Flags()).To(Equal(spaceport.Flags(spaceport.User, spaceport.PID, spaceport.Net)))

			nsfds := Successful(h.Namespaces(spaceport.Flags(spaceport.User, spaceport.PID, spaceport.IPC)))
			defer func() {
				for _, fd := range nsfds {
					_ = unix.Close(fd)
				}
			}()
			Expect(nsfds).To(HaveLen(3))
			Expect(spaceport.Ino(nsfds[spaceport.User])).NotTo(
				Equal(Successful(spaceport.Ino("/proc/self/ns/user"))))
			Expect(spaceport.Ino(nsfds[spaceport.PID])).NotTo(
				Equal(Successful(spaceport.Ino("/proc/self/ns/pid"))))
			Expect(spaceport.Ino(nsfds[spaceport.IPC])).To(
				Equal(Successful(spaceport.Ino("/proc/self/ns/ipc"))), "IPC namespace not inherited")

			netfd := Successful(h.Fd(spaceport.Net))
			defer func() { _ = unix.Close(netfd) }()
			Expect(spaceport.Type(netfd)).To(Equal(spaceport.Net))
			Expect(spaceport.Ino(netfd)).To(Equal(
				Successful(spaceport.Ino("/proc/" + strconv.Itoa(h.PID()) + "/ns/net"))))

			Eventually(stderr.String).Should(ContainSubstring("holder serving loop started"))
		})

		It("creates new namespaces inside the held user namespace", func(ctx context.Context) {
			h := Successful(New(ctx, spaceport.Flags(spaceport.User),
				WithStdout(GinkgoWriter), WithStderr(GinkgoWriter)))
			defer func() { Expect(h.Close()).To(Succeed()) }()

			nsfds := Successful(h.NewNamespaces(spaceport.Flags(spaceport.UTS, spaceport.Mount)))
			defer func() {
				for _, fd := range nsfds {
					_ = unix.Close(fd)
				}
			}()
			Expect(nsfds).To(HaveLen(2))
			Expect(spaceport.Ino(nsfds[spaceport.UTS])).NotTo(
				Equal(Successful(spaceport.Ino("/proc/self/ns/uts"))))

			Expect(h.NewNamespaces(spaceport.Flags(spaceport.PID))).Error().To(
				MatchError(ContainSubstring("unsupported namespace types pid")))
		})

		It("persists held namespaces beyond the holder's lifetime", func(ctx context.Context) {
			h := Successful(New(ctx, spaceport.Flags(spaceport.UTS, spaceport.IPC),
				WithStdout(GinkgoWriter), WithStderr(GinkgoWriter)))
			utsIno := Successful(spaceport.Ino("/proc/" + strconv.Itoa(h.PID()) + "/ns/uts"))

			tmpdir := GinkgoT().TempDir()
			tmpl := spaceport.MustParseTemplate(filepath.Join(tmpdir, "%s"))
			DeferCleanup(func() {
				Expect(spaceport.Unpersist(tmpl.Path(spaceport.UTS))).To(Succeed())
				Expect(spaceport.Unpersist(tmpl.Path(spaceport.IPC))).To(Succeed())
			})
			Expect(h.Persist(tmpl)).To(Succeed())
			Expect(h.Close()).To(Succeed())

			Expect(spaceport.IsPersisted(tmpl.Path(spaceport.UTS), spaceport.UTS)).To(BeTrue())
			Expect(spaceport.IsPersisted(tmpl.Path(spaceport.IPC), spaceport.IPC)).To(BeTrue())
			Expect(spaceport.Ino(tmpl.Path(spaceport.UTS))).To(Equal(utsIno))
		})

		It("terminates the holder when the context gets cancelled", func(ctx context.Context) {
			ctx, cancel := context.WithCancel(ctx)
			h := Successful(New(ctx, spaceport.Flags(spaceport.UTS),
				WithStdout(GinkgoWriter), WithStderr(GinkgoWriter)))
			pid := h.PID()
			cancel()
			Eventually(func() error {
				return unix.Kill(pid, 0)
			}).Within(5 * time.Second).ProbeEvery(100 * time.Millisecond).Should(MatchError(unix.ESRCH))
			Expect(h.Close()).To(Succeed())
			fd, err := h.Fd(spaceport.UTS)
			Expect(fd).To(Equal(-1))
			Expect(err).To(HaveOccurred())
		})

		It("terminates the holder for an already cancelled context", func(ctx context.Context) {
			ctx, cancel := context.WithCancel(ctx)
			cancel()
			h := Successful(New(ctx, spaceport.Flags(spaceport.UTS),
				WithStdout(GinkgoWriter), WithStderr(GinkgoWriter)))
			pid := h.PID()
			Eventually(func() error {
				return unix.Kill(pid, 0)
			}).Within(5 * time.Second).ProbeEvery(100 * time.Millisecond).Should(MatchError(unix.ESRCH))
			Expect(h.Close()).To(Succeed())
		})

	})

})
