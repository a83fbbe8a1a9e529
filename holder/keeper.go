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
	"cmp"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/thediveo/spaceport"
	"github.com/thediveo/spaceport/holder/api"
	"golang.org/x/sys/unix"
)

// roomTypes are the types of namespaces a Keeper creates on request.
var roomTypes = spaceport.Flags(
	spaceport.Mount, spaceport.UTS, spaceport.IPC, spaceport.Net, spaceport.Cgroup)

// holdTypes are all types of namespaces a Keeper hands out references for, in
// the order of joining them.
var holdTypes = []spaceport.Flag{
	spaceport.Mount,
	spaceport.UTS,
	spaceport.IPC,
	spaceport.User,
	spaceport.PID,
	spaceport.Net,
	spaceport.Cgroup,
}

// Keeper is the [Service] running inside a holder child process, handing out
// references to the namespaces it is attached to, as well as creating new
// namespaces from inside its namespaces.
type Keeper struct {
	Namespacer *spaceport.Namespacer
	Stderr     io.Writer
}

var _ Service = (*Keeper)(nil)

func (k *Keeper) namespacer() *spaceport.Namespacer {
	if k.Namespacer != nil {
		return k.Namespacer
	}
	k.Namespacer = &spaceport.Namespacer{
		Logger: slog.New(slog.NewTextHandler(
			cmp.Or(k.Stderr, io.Writer(os.Stderr)),
			&slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	return k.Namespacer
}

// Slog returns the logger of the Keeper.
func (k *Keeper) Slog() *slog.Logger { return k.namespacer().Slog() }

// Namespaces returns references to the namespaces of the requested types the
// keeper process is attached to.
func (k *Keeper) Namespaces(req *api.NamespacesRequest) api.Response {
	if req.Spaces == 0 {
		return &api.ErrorResponse{Reason: "no namespace requested"}
	}
	resp := &api.NamespacesResponse{Namespaces: map[spaceport.Flag]int{}}
	for _, typ := range holdTypes {
		if !req.Spaces.Has(typ) {
			continue
		}
		fd, err := unix.Open("/proc/self/ns/"+typ.ProcName(), unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			resp.Close()
			k.Slog().Error("cannot reference namespace",
				slog.String("type", typ.String()),
				slog.String("err", err.Error()))
			return &api.ErrorResponse{Reason: "cannot reference " + typ.String() +
				" namespace, reason: " + err.Error()}
		}
		resp.Namespaces[typ] = fd
	}
	return resp
}

// Rooms creates new namespaces of the requested types and returns references
// to them. It cannot create user and PID namespaces, as the kernel refuses to
// create them from multi-threaded processes.
func (k *Keeper) Rooms(req *api.RoomsRequest) api.Response {
	if req.Spaces&^roomTypes != 0 {
		return &api.ErrorResponse{Reason: "unsupported namespace types " +
			(req.Spaces &^ roomTypes).String()}
	}
	if req.Spaces == 0 {
		return &api.ErrorResponse{Reason: "no namespace requested"}
	}

	resp := &api.NamespacesResponse{Namespaces: map[spaceport.Flag]int{}}
	var failures []string
	for typ := range req.Spaces.All() {
		type result struct {
			fd  int
			err error
		}
		ch := make(chan result)
		// create each new namespace on its own throw-away OS-level thread.
		go func() {
			defer close(ch)
			fd, err := k.newNamespace(typ)
			ch <- result{fd: fd, err: err}
		}()
		res := <-ch
		if res.err != nil {
			failures = append(failures, typ.String()+": "+res.err.Error())
			continue
		}
		resp.Namespaces[typ] = res.fd
	}
	if len(failures) > 0 {
		resp.Close()
		return &api.ErrorResponse{Reason: strings.Join(failures, ", ")}
	}
	return resp
}

// newNamespace returns a file descriptor referencing a new namespace of the
// passed type. It locks the caller's go routine to its OS-level thread and
// never unlocks it, so call it on a throw-away go routine only.
func (k *Keeper) newNamespace(typ spaceport.Flag) (int, error) {
	runtime.LockOSThread()

	if typ == spaceport.Mount {
		if err := unix.Unshare(unix.CLONE_FS); err != nil {
			return -1, err
		}
	}
	if _, err := k.namespacer().Unshare(spaceport.Flags(typ)); err != nil {
		return -1, err
	}
	return unix.Open("/proc/thread-self/ns/"+typ.ProcName(), unix.O_RDONLY|unix.O_CLOEXEC, 0)
}
