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

package gobmsg

import (
	"encoding/gob"
	"strings"
	"time"

	"github.com/thediveo/spaceport/uds"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

type message interface{ message() }

type hello struct{ Name string }

func (hello) message() {}

type bye struct{ Count int }

func (bye) message() {}

func init() {
	gob.Register(&hello{})
	gob.Register(&bye{})
}

var _ = Describe("gob messages", func() {

	BeforeEach(func() {
		goodfds := Filedescriptors()
		DeferCleanup(func() {
			Eventually(Filedescriptors).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeakedFds(goodfds))
		})
	})

	It("reports encoding errors", func() {
		enc := NewEncoder()
		Expect(enc.Encode(nil)).Error().To(HaveOccurred())
		Expect(enc.Encode(&hello{Name: strings.Repeat("x", MaxMessageSize)})).Error().To(
			MatchError(ContainSubstring("exceeds maximum")))
	})

	It("exchanges polymorphic messages with fds", func() {
		parent, child := Successful2R(uds.Pair())
		sender := New(child)
		receiver := New(parent)
		defer func() {
			_ = sender.Close()
			_ = receiver.Close()
		}()

		nsfd := Successful(unix.Open("/proc/self/ns/ipc", unix.O_RDONLY, 0))
		defer func() { _ = unix.Close(nsfd) }()

		go func() {
			defer GinkgoRecover()
			var msg message = &hello{Name: "dupond"}
			Expect(sender.Send(&msg, nsfd)).To(Succeed())
			msg = &bye{Count: 42}
			Expect(sender.Send(&msg)).To(Succeed())
			msg = &hello{Name: "dupont"}
			Expect(sender.Send(&msg)).To(Succeed())
		}()

		Expect(receiver.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		var msg message
		fds := Successful(receiver.Receive(&msg, 1))
		Expect(fds).To(HaveLen(1))
		Expect(unix.Close(fds[0])).To(Succeed())
		Expect(msg).To(Equal(&hello{Name: "dupond"}))

		Expect(receiver.Receive(&msg, 1)).To(BeEmpty())
		Expect(msg).To(Equal(&bye{Count: 42}))

		Expect(receiver.Receive(&msg, 1)).To(BeEmpty())
		Expect(msg).To(Equal(&hello{Name: "dupont"}))
	})

	It("reports a closed peer", func() {
		parent, child := Successful2R(uds.Pair())
		receiver := New(parent)
		defer func() { _ = receiver.Close() }()
		Expect(child.Close()).To(Succeed())

		var msg message
		Expect(receiver.Receive(&msg, 1)).Error().To(HaveOccurred())
	})

})
