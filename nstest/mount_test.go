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
	"os"
	"path/filepath"
	"time"

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

var _ = Describe("transient mount namespaces", func() {

	BeforeEach(func() {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		goodfds := Filedescriptors()
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})
	})

	It("rejects mounting sysfs in the original mount namespace", func() {
		Expect(InterceptGomegaFailure(func() {
			MountSysfsRO()
		})).To(MatchError(
			ContainSubstring("current mount namespace must not be the process's original mount namespace")))
	})

	It("mounts a fresh sysfs (RO) in a transient mount namespace", func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer GinkgoRecover()

			defer EnterTransient(spaceport.Net)()
			Expect(len(Successful(os.ReadDir("/sys/class/net")))).To(
				BeNumerically(">", 1), "expecting lo and more, like eth0")

			defer EnterTransientMount()()
			MountSysfsRO()

			Expect(Successful(os.ReadDir("/sys/class/net"))).To(
				ConsistOf(HaveField("Name()", "lo")))
		}()
		Eventually(done).Should(BeClosed())
	})

	It("creates a mount namespace without entering it", func() {
		mntnsfd, procfsroot := NewTransientMount()
		Expect(Ino(mntnsfd, spaceport.Mount)).NotTo(Equal(CurrentIno(spaceport.Mount)))
		Expect(procfsroot).To(MatchRegexp(`^/proc/\d+/root$`))

		tmpdir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(tmpdir, "canary"), nil, 0o644)).To(Succeed())
		Execute(func() {
			Expect(unix.Mount("tmpfs", tmpdir, "tmpfs", 0, "")).To(Succeed())
			Expect(filepath.Join(tmpdir, "canary")).NotTo(BeAnExistingFile())
		}, mntnsfd)
		Expect(filepath.Join(tmpdir, "canary")).To(BeARegularFile())
		Expect(filepath.Join(procfsroot, tmpdir, "canary")).NotTo(BeAnExistingFile())
	})

})
