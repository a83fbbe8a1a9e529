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

/*
Package nstest helps with running [Ginkgo] unit tests in transient Linux-kernel
namespaces, using the namespace operations of the spaceport package. All helpers
fail the current test on errors, using [Gomega] assertions.

# Usage

The simplest use case is to call [EnterTransient] and defer its return value –
mind the curse of the double-paired brackets.

	import "github.com/thediveo/spaceport/nstest"

	It("tests something inside a transient network namespace", func() {
	  defer nstest.EnterTransient(spaceport.Net)() // !!! double ()()
	  // ...
	})

[EnterTransient] locks the calling go routine to its OS-level thread, creates
a new throw-away namespace, and switches the thread into it. When the test ends
the deferred function switches the thread back into its original namespace and
unlocks it.

[NewTransient] creates a new namespace without entering it, and [Execute] runs
a function while attached to other namespaces, on a throw-away thread where
mount namespaces are involved.

# Mount Namespaces

[EnterTransientMount] and [NewTransientMount] remount “/” in the new mount
namespace with private mount point propagation, so that mount point changes
don't leak back into the host.

# PID and User Namespaces

Threads can neither leave PID nor user namespaces. Use the holder package to
keep such namespaces in a separate child process instead.

[Ginkgo]: https://github.com/onsi/ginkgo
[Gomega]: https://github.com/onsi/gomega
*/
package nstest
