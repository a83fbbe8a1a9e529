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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("path templates", func() {

	DescribeTable("rejecting invalid templates",
		func(format string) {
			Expect(ParseTemplate(format)).Error().To(MatchError(ErrUsage))
		},
		Entry("empty", ""),
		Entry("no slot", "/run/ns"),
		Entry("escaped slot", "/run/ns/%%s"),
		Entry("two slots", "/run/%s/%s"),
		Entry("other verb", "/run/%d/%s"),
		Entry("only other verb", "/run/%d"),
	)

	DescribeTable("filling in the canonical names",
		func(format string, flag Flag, expected string) {
			Expect(Successful(ParseTemplate(format)).Path(flag)).To(Equal(expected))
		},
		Entry(nil, "/run/ns/%s", Mount, "/run/ns/mount"),
		Entry(nil, "/tmp/ns_%s", UTS, "/tmp/ns_uts"),
		Entry(nil, "/run/100%%/%s.ns", Net, "/run/100%/net.ns"),
		Entry(nil, "/run/ns/%s", PID, "/run/ns/pid"),
	)

	It("panics on invalid templates when told so", func() {
		Expect(func() { _ = MustParseTemplate("/nada") }).To(PanicWith(MatchError(ErrUsage)))
		Expect(MustParseTemplate("/%s").String()).To(Equal("/%s"))
		Expect(Template{}.IsZero()).To(BeTrue())
	})

	It("generates unique pin templates", func() {
		t1 := NewPinTemplate("/run/spaceport")
		t2 := NewPinTemplate("/run/spaceport")
		Expect(t1).NotTo(Equal(t2))
		Expect(t1.Path(IPC)).To(HavePrefix("/run/spaceport/ipcns/"))
		Expect(filepath.Base(t1.Path(IPC))).To(HaveLen(36))
		Expect(NewPinTemplate("/run/100%").Path(UTS)).To(HavePrefix("/run/100%/utsns/"))
	})

	It("prepares mount points", func() {
		tmpdir := GinkgoT().TempDir()
		tmpl := NewPinTemplate(tmpdir)
		Expect(tmpl.Prepare(Flags(UTS, Net, PID))).To(Succeed())
		Expect(tmpl.Path(UTS)).To(BeARegularFile())
		Expect(tmpl.Path(Net)).To(BeARegularFile())
		Expect(tmpl.Path(PID)).NotTo(BeAnExistingFile())
		// preparing again is fine.
		Expect(tmpl.Prepare(Flags(UTS))).To(Succeed())

		Expect(Template{}.Prepare(Flags(UTS))).To(MatchError(ErrUsage))
	})

	It("leaves existing mount points alone", func() {
		tmpdir := GinkgoT().TempDir()
		Expect(os.Mkdir(filepath.Join(tmpdir, "uts"), 0o755)).To(Succeed())
		Expect(EnsureMountPoint(filepath.Join(tmpdir, "uts"))).To(Succeed())
		Expect(filepath.Join(tmpdir, "uts")).To(BeADirectory())
	})

	It("keeps the contents of existing mount point files", func() {
		pidns := filepath.Join(GinkgoT().TempDir(), "pid")
		Expect(os.WriteFile(pidns, []byte("canary"), 0o644)).To(Succeed())
		Expect(EnsureMountPoint(pidns)).To(Succeed())
		Expect(os.ReadFile(pidns)).To(Equal([]byte("canary")))
	})

	It("reports mount points that cannot be created", func() {
		tmpdir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(tmpdir, "file"), nil, 0o644)).To(Succeed())
		Expect(EnsureMountPoint(filepath.Join(tmpdir, "file", "uts"))).To(
			MatchError(ContainSubstring("cannot create mount point directory")))
	})

})
