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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/docker/docker/pkg/reexec"
	"github.com/thediveo/spaceport"
	"github.com/thediveo/spaceport/gobmsg"
	"github.com/thediveo/spaceport/holder/api"
	"github.com/thediveo/spaceport/uds"
)

// ServiceName is the name under which the holder service is registered with
// [reexec.Register].
const ServiceName = "spaceport-holder"

// serviceFd is the file descriptor number of the service's end of the
// connection in the holder child process; the first of [exec.Cmd.ExtraFiles].
const serviceFd = 3

// responseTimeout limits waiting for a service response.
var responseTimeout = 5 * time.Second

func init() {
	reexec.Register(ServiceName, serviceMain)
}

// serviceMain is the entry point of the holder child process.
func serviceMain() {
	keeper := &Keeper{}
	conn, err := uds.FromFd(serviceFd, "holder")
	if err != nil {
		keeper.Slog().Error("invalid service connection fd",
			slog.Int("fd", serviceFd),
			slog.String("err", err.Error()))
		os.Exit(1)
	}
	Serve(context.Background(), gobmsg.New(conn), keeper)
}

// Holder keeps namespaces alive in a separate child process and hands out
// references to them. This allows working with new user and PID namespaces,
// which multi-threaded Go programs cannot create for themselves.
//
// A Holder must not be used concurrently.
type Holder struct {
	cmd    *exec.Cmd
	conn   *gobmsg.Conn
	flags  spaceport.FlagSet
	ns     *spaceport.Namespacer
	mu     sync.Mutex // guards stop
	stop   func() bool
	closer sync.Once
	err    error
}

// Option configures a new [Holder].
type Option func(*options) error

type options struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// WithStdout sets the stdout of the holder child process.
func WithStdout(w io.Writer) Option {
	return func(o *options) error {
		o.stdout = w
		return nil
	}
}

// WithStderr sets the stderr of the holder child process, which receives the
// holder service's log output.
func WithStderr(w io.Writer) Option {
	return func(o *options) error {
		o.stderr = w
		return nil
	}
}

// WithLogger sets the logger for the client side of the holder.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) error {
		if log == nil {
			return errors.New("nil logger")
		}
		o.logger = log
		return nil
	}
}

// New starts a holder child process in new namespaces of the types in flags,
// returning a Holder connected to it. The holder child process terminates when
// the Holder gets closed or the passed context gets cancelled.
//
// When flags contain a user namespace, the caller's user and group get mapped
// to root inside the new user namespace.
//
// The calling program must call [reexec.Init] at the beginning of its main
// function (or TestMain) and return when it returns true.
func New(ctx context.Context, flags spaceport.FlagSet, opts ...Option) (*Holder, error) {
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	parent, child, err := uds.Pair()
	if err != nil {
		return nil, fmt.Errorf("cannot create holder connection: %w", err)
	}
	// the child process gets its own copy of its end of the connection, so
	// we always close ours.
	childf, err := child.File()
	_ = child.Close()
	if err != nil {
		_ = parent.Close()
		return nil, fmt.Errorf("cannot create holder connection: %w", err)
	}
	defer func() { _ = childf.Close() }()

	cmd := reexec.Command(ServiceName)
	cmd.Stdout = cmp.Or(o.stdout, io.Writer(os.Stdout))
	cmd.Stderr = cmp.Or(o.stderr, io.Writer(os.Stderr))
	cmd.ExtraFiles = []*os.File{childf}
	if flags.Has(spaceport.User) {
		if cmd.SysProcAttr == nil {
			cmd.SysProcAttr = &syscall.SysProcAttr{}
		}
		cmd.SysProcAttr.UidMappings = []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getuid(), Size: 1},
		}
		cmd.SysProcAttr.GidMappings = []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getgid(), Size: 1},
		}
	}

	ns := &spaceport.Namespacer{Logger: o.logger}
	if _, err := ns.Clone(flags, cmd); err != nil {
		_ = parent.Close()
		return nil, err
	}
	h := &Holder{
		cmd:   cmd,
		conn:  gobmsg.New(parent),
		flags: flags,
		ns:    ns,
	}
	// an already cancelled ctx runs Close right away, so it must not see stop
	// until it has been set.
	h.mu.Lock()
	h.stop = context.AfterFunc(ctx, func() { _ = h.Close() })
	h.mu.Unlock()
	return h, nil
}

// PID returns the PID of the holder child process.
func (h *Holder) PID() int { return h.cmd.Process.Pid }

// Flags returns the types of namespaces newly created for the holder.
func (h *Holder) Flags() spaceport.FlagSet { return h.flags }

// Close the connection to the holder, terminating the holder child process and
// waiting for it to end. Namespaces stay alive as long as they are persisted or
// referenced by open file descriptors.
func (h *Holder) Close() error {
	h.closer.Do(func() {
		h.mu.Lock()
		stop := h.stop
		h.mu.Unlock()
		if stop != nil {
			stop()
		}
		_ = h.conn.Close()
		done := make(chan struct{})
		go func() {
			defer close(done)
			h.err = h.cmd.Wait()
		}()
		select {
		case <-done:
		case <-time.After(responseTimeout):
			_ = h.cmd.Process.Kill()
			<-done
		}
		h.ns.Slog().Info("holder terminated", slog.Int("pid", h.cmd.Process.Pid))
	})
	return h.err
}

// Namespaces returns open file descriptors referencing the holder's namespaces
// of the types in flags, keyed by type. This includes namespaces the holder
// inherited from its parent, if requested. The caller takes ownership of the
// returned file descriptors.
func (h *Holder) Namespaces(flags spaceport.FlagSet) (map[spaceport.Flag]int, error) {
	resp, err := h.do(&api.NamespacesRequest{Spaces: flags})
	if err != nil {
		return nil, err
	}
	return resp.Namespaces, nil
}

// Fd returns an open file descriptor referencing the holder's namespace of the
// specified type. The caller takes ownership of the returned file descriptor.
func (h *Holder) Fd(flag spaceport.Flag) (int, error) {
	nsfds, err := h.Namespaces(spaceport.Flags(flag))
	if err != nil {
		return -1, err
	}
	fd, ok := nsfds[flag]
	if !ok {
		(&api.NamespacesResponse{Namespaces: nsfds}).Close()
		return -1, fmt.Errorf("holder returned no %s namespace", flag)
	}
	return fd, nil
}

// NewNamespaces creates new namespaces of the types in flags from inside the
// holder's namespaces, so that they are owned by the holder's user namespace.
// It returns open file descriptors referencing the new namespaces, keyed by
// type; the caller takes ownership of them. User and PID namespaces cannot be
// created this way.
func (h *Holder) NewNamespaces(flags spaceport.FlagSet) (map[spaceport.Flag]int, error) {
	resp, err := h.do(&api.RoomsRequest{Spaces: flags})
	if err != nil {
		return nil, err
	}
	return resp.Namespaces, nil
}

// Persist persists the holder's namespaces of the types it was created with
// onto the paths generated from the passed template, creating missing mount
// points. As with [spaceport.PersistAll], PID namespaces are skipped; persist
// them using [spaceport.PersistNamespace] together with [Holder.PID].
func (h *Holder) Persist(tmpl spaceport.Template) error {
	if err := tmpl.Prepare(h.flags); err != nil {
		return err
	}
	return h.ns.PersistAll(h.PID(), h.flags, tmpl)
}

// do the passed request, returning the namespaces response or an error.
func (h *Holder) do(req api.Request) (*api.NamespacesResponse, error) {
	name := fmt.Sprintf("%T", req)
	if err := h.conn.Send(&req); err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	if err := h.conn.SetReadDeadline(time.Now().Add(responseTimeout)); err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	var resp api.Response
	fds, err := h.conn.Receive(&resp, maxFds)
	if err != nil {
		closeFds(fds)
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	switch resp := resp.(type) {
	case *api.NamespacesResponse:
		resp.DecodeFds(fds)
		return resp, nil
	case *api.ErrorResponse:
		closeFds(fds)
		return nil, fmt.Errorf("%s failed: %w", name, resp)
	}
	closeFds(fds)
	return nil, fmt.Errorf("%s failed: unexpected response %T", name, resp)
}
