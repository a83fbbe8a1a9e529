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
	"runtime"

	"github.com/thediveo/caps"
	"github.com/thediveo/spaceport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("transient namespaces", Ordered, func() {

	BeforeAll(func() {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
	})

	When("creating and entering in a single step", func() {

		DescribeTable("no entry",
			func(typ spaceport.Flag) {
				Expect(InterceptGomegaFailure(func() {
					_ = EnterTransient(typ)
				})).To(MatchError(ContainSubstring("unsupported type " + typ.String())))
			},
			Entry("mount", spaceport.Mount),
			Entry("user", spaceport.User),
			Entry("pid", spaceport.PID),
		)

		DescribeTable("enter and leave",
			func(typ spaceport.Flag) {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()

				origIno := Ino(Current(typ), typ)

				cleanup := EnterTransient(typ)
				Expect(cleanup).NotTo(BeNil())
				Expect(Ino(Current(typ), typ)).NotTo(Equal(origIno),
					"failed to enter "+typ.String())

				cleanup()
				Expect(Ino(Current(typ), typ)).To(Equal(origIno),
					"failed to leave "+typ.String())
			},
			Entry("cgroup", spaceport.Cgroup),
			Entry("ipc", spaceport.IPC),
			Entry("net", spaceport.Net),
			Entry("uts", spaceport.UTS),
		)

		It("panics when unable to restore the previously attached namespace", func() {
			runtime.LockOSThread() // this thread will be tainted and must be dropped at the end.

			cleanup := EnterTransient(spaceport.Net)
			Expect(caps.SetForThisTask(caps.TaskCapabilities{})).To(Succeed())
			Expect(cleanup).To(PanicWith(
				ContainSubstring("cannot restore original net namespace")))
		})

	})

	When("only creating", func() {

		DescribeTable("rejecting creation",
			func(typ spaceport.Flag) {
				Expect(InterceptGomegaFailure(func() {
					_ = NewTransient(typ)
				})).To(MatchError(ContainSubstring("unsupported type " + typ.String())))
			},
			Entry("mount", spaceport.Mount),
			Entry("user", spaceport.User),
			Entry("pid", spaceport.PID),
		)

		DescribeTable("successful creation",
			func(typ spaceport.Flag) {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()

				origIno := Ino(Current(typ), typ)
				newns := NewTransient(typ)
				Expect(Ino(Current(typ), typ)).To(Equal(origIno), "didn't switch back")
				Expect(Ino(newns, typ)).NotTo(Equal(origIno), "didn't create new namespace")
			},
			Entry("cgroup", spaceport.Cgroup),
			Entry("ipc", spaceport.IPC),
			Entry("net", spaceport.Net),
			Entry("uts", spaceport.UTS),
		)

	})

	It("persists a transient namespace", func() {
		path := PersistTransient(spaceport.UTS)
		Expect(spaceport.IsPersisted(path, spaceport.UTS)).To(BeTrue())
		Expect(Ino(path, spaceport.UTS)).NotTo(Equal(CurrentIno(spaceport.UTS)))
	})

})
