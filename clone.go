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
	"log/slog"
	"os/exec"
	"syscall"

	"github.com/docker/docker/pkg/reexec"
)

// Clone starts the passed command as a new child process inside new
// namespaces of the types in flags, using the [DefaultNamespacer]. See
// [Namespacer.Clone] for details.
func Clone(flags FlagSet, cmd *exec.Cmd) (int, error) {
	return DefaultNamespacer.Clone(flags, cmd)
}

// CloneFunc starts a re-executed copy of this program as a new child process
// inside new namespaces, running the body registered under name using
// [reexec.Register]; see [Namespacer.CloneFunc] for details.
func CloneFunc(flags FlagSet, name string, args ...string) (*exec.Cmd, error) {
	return DefaultNamespacer.CloneFunc(flags, name, args...)
}

// Clone starts the passed command as a new child process inside new
// namespaces of the types in flags, returning the PID of the child process.
// The flags are added to any clone flags already set in the command's
// SysProcAttr. The caller is responsible for waiting on the command.
//
// When creating a new user namespace, callers usually want to also set the
// UID and GID mappings in the command's SysProcAttr.
func (n *Namespacer) Clone(flags FlagSet, cmd *exec.Cmd) (int, error) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Cloneflags |= uintptr(flags)
	if err := n.prims().Start(cmd); err != nil {
		err = &PrimitiveError{Op: "clone", Flags: flags, Path: cmd.Path, Err: err}
		n.Slog().Error("cannot start process in new namespaces",
			slog.String("types", flags.String()),
			slog.String("path", cmd.Path),
			slog.String("err", errText(err)))
		return int(Failed), err
	}
	pid := cmd.Process.Pid
	n.Slog().Info("started process in new namespaces",
		slog.String("types", flags.String()),
		slog.Int("pid", pid))
	return pid, nil
}

// CloneFunc starts a re-executed copy of this program as a new child process
// inside new namespaces of the types in flags. The child runs the body
// registered under name using [reexec.Register], with the additional args in
// its os.Args. The program must call [reexec.Init] early in its main function
// and return from main when it returns true.
//
// The returned command has been started; the child's PID is cmd.Process.Pid.
// The caller is responsible for waiting on the command.
func (n *Namespacer) CloneFunc(flags FlagSet, name string, args ...string) (*exec.Cmd, error) {
	cmd := reexec.Command(append([]string{name}, args...)...)
	if _, err := n.Clone(flags, cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
