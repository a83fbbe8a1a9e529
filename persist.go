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
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// PersistNamespace bind-mounts the namespace of type flag belonging to the
// process with the specified PID onto dst, using the [DefaultNamespacer].
// See [Namespacer.PersistNamespace] for details.
func PersistNamespace(pid int, flag Flag, dst string) (Status, error) {
	return DefaultNamespacer.PersistNamespace(pid, flag, dst)
}

// PersistNamespace bind-mounts the namespace of type flag belonging to the
// process with the specified PID onto dst. A PID of 0 refers to the calling
// OS-level thread. The mount point dst must already exist, either as a file
// or a directory. The persisted namespace stays alive until dst gets unmounted
// (see [Namespacer.Unpersist]), even after all its processes have terminated.
//
// Please note that the Linux kernel refuses to persist the caller's own mount
// namespace inside itself.
func (n *Namespacer) PersistNamespace(pid int, flag Flag, dst string) (Status, error) {
	procname := flag.ProcName()
	if procname == "" {
		return Failed, &UsageError{
			Reason: fmt.Sprintf("cannot persist unknown type of namespace %s", flag)}
	}
	src := nsPath(pid, procname)
	if err := n.prims().BindMount(src, dst); err != nil {
		err = &PrimitiveError{Op: "persist", Flags: FlagSet(flag), Path: dst, Err: err}
		n.Slog().Error("cannot persist namespace",
			slog.String("type", flag.String()),
			slog.Int("pid", pid),
			slog.String("path", dst),
			slog.String("err", errText(err)))
		return Failed, err
	}
	n.Slog().Info("persisted namespace",
		slog.String("type", flag.String()),
		slog.Int("pid", pid),
		slog.String("path", dst))
	return 0, nil
}

// PersistAll persists the namespaces of the types in flags belonging to the
// process with the specified PID, using the [DefaultNamespacer]. See
// [Namespacer.PersistAll] for details.
func PersistAll(pid int, flags FlagSet, tmpl Template) error {
	return DefaultNamespacer.PersistAll(pid, flags, tmpl)
}

// PersistAll persists the namespaces of the types in flags belonging to the
// process with the specified PID, one after another in the order of
// [FlagSet.All]. Each namespace gets bind-mounted onto the path generated from
// the template for the particular type of namespace. An unset template is a
// usage error.
//
// PersistAll stops at the first failure; namespaces persisted up to this point
// stay persisted.
func (n *Namespacer) PersistAll(pid int, flags FlagSet, tmpl Template) error {
	if tmpl.IsZero() {
		return &UsageError{Reason: "option to or format required"}
	}
	for f := range flags.All() {
		if _, err := n.PersistNamespace(pid, f, tmpl.Path(f)); err != nil {
			return err
		}
	}
	return nil
}

// Unpersist unmounts a persisted namespace using the [DefaultNamespacer].
func Unpersist(path string) error {
	return DefaultNamespacer.Unpersist(path)
}

// Unpersist lazily unmounts the namespace persisted at path. Paths that aren't
// mount points are silently accepted. Unpersist does not remove the mount
// point itself.
func (n *Namespacer) Unpersist(path string) error {
	if err := n.prims().Unmount(path); err != nil && !errors.Is(err, unix.EINVAL) {
		n.Slog().Error("cannot unpersist namespace",
			slog.String("path", path),
			slog.String("err", err.Error()))
		return &PrimitiveError{Op: "unpersist", Path: path, Err: err}
	}
	n.Slog().Info("unpersisted namespace", slog.String("path", path))
	return nil
}

// IsPersisted returns true if path references a namespace of the specified
// type, such as a namespace persisted by [PersistNamespace]. It returns false
// if path exists but isn't a namespace reference, and an error if path cannot
// be opened.
func IsPersisted(path string, flag Flag) (bool, error) {
	typ, err := Type(path)
	if err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) {
			return false, nil
		}
		return false, err
	}
	return typ == flag, nil
}
