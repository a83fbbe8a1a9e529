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
Package holder keeps Linux-kernel namespaces alive in a separate child process
and hands out references to them in form of open file descriptors.

Go programs are multi-threaded, so the kernel refuses to let them unshare or
join user namespaces, and unsharing a PID namespace only affects future
children. A holder sidesteps these restrictions: [New] re-executes the calling
program as a child process in new namespaces, including user and PID
namespaces, using [spaceport.Clone]. The child then runs the holder service,
which sends namespace references back over a unix domain socket.

	h, err := holder.New(ctx, spaceport.Flags(spaceport.User, spaceport.PID, spaceport.Net))
	if err != nil {
	  // ...
	}
	defer h.Close()
	netfd, err := h.Fd(spaceport.Net)

Programs using holders must call [reexec.Init] first thing in their main (or
TestMain) function and return immediately when it returns true:

	func main() {
	  if reexec.Init() {
	    return
	  }
	  // ...
	}

[reexec.Init]: https://pkg.go.dev/github.com/docker/docker/pkg/reexec#Init
*/
package holder
