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
)

// UnshareOption configures an [Namespacer.Unshare] operation.
type UnshareOption func(*unshareOptions) error

type unshareOptions struct {
	persistTo   Template
	mountPoints bool
}

// PersistTo persists each newly created namespace onto the path generated
// from the passed template, see [ParseTemplate].
func PersistTo(template string) UnshareOption {
	return func(o *unshareOptions) error {
		tmpl, err := ParseTemplate(template)
		if err != nil {
			return err
		}
		o.persistTo = tmpl
		return nil
	}
}

// PersistToTemplate is like [PersistTo], but takes an already parsed
// template, such as one returned by [NewPinTemplate].
func PersistToTemplate(tmpl Template) UnshareOption {
	return func(o *unshareOptions) error {
		if tmpl.IsZero() {
			return &UsageError{Reason: "option to or format required"}
		}
		o.persistTo = tmpl
		return nil
	}
}

// WithMountPoints creates missing mount point files before persisting.
func WithMountPoints() UnshareOption {
	return func(o *unshareOptions) error {
		o.mountPoints = true
		return nil
	}
}

// Unshare creates new namespaces of the types in flags for the calling
// OS-level thread, using the [DefaultNamespacer]. See [Namespacer.Unshare]
// for details.
func Unshare(flags FlagSet, opts ...UnshareOption) (Status, error) {
	return DefaultNamespacer.Unshare(flags, opts...)
}

// MustUnshare is like [Unshare], but panics if unsharing fails.
func MustUnshare(flags FlagSet, opts ...UnshareOption) Status {
	return DefaultNamespacer.MustUnshare(flags, opts...)
}

// Unshare creates new namespaces of the types in flags for the calling
// OS-level thread, in a single unshare(2) call. The thread cannot return to
// its previous namespaces other than by explicitly joining them again, see
// [Namespacer.Setns].
//
// If unsharing fails, Unshare returns [Failed] and the error; nothing gets
// persisted. Otherwise, when the [PersistTo] option was given, Unshare
// persists each new namespace of a type in flags (as yielded by
// [FlagSet.All]) onto the path generated from the template. Persisting stops
// at the first failure, keeping the namespaces persisted so far.
//
// Please note that the Linux kernel does not allow multi-threaded processes
// (and all Go programs are multi-threaded) to create new user namespaces
// using unshare(2); use [Clone] instead.
func (n *Namespacer) Unshare(flags FlagSet, opts ...UnshareOption) (Status, error) {
	var uo unshareOptions
	for _, opt := range opts {
		if err := opt(&uo); err != nil {
			return Failed, err
		}
	}

	if err := n.prims().Unshare(flags); err != nil {
		err = &PrimitiveError{Op: "unshare", Flags: flags, Err: err}
		n.Slog().Error("cannot create new namespaces",
			slog.String("types", flags.String()),
			slog.String("err", errText(err)))
		return Failed, err
	}
	n.Slog().Info("created new namespaces", slog.String("types", flags.String()))

	if uo.persistTo.IsZero() {
		return 0, nil
	}
	for f := range flags.All() {
		dst := uo.persistTo.Path(f)
		if uo.mountPoints {
			if err := EnsureMountPoint(dst); err != nil {
				n.Slog().Error("cannot prepare mount point",
					slog.String("path", dst),
					slog.String("err", err.Error()))
				return Failed, err
			}
		}
		if status, err := n.PersistNamespace(0, f, dst); err != nil {
			return status, err
		}
	}
	return 0, nil
}

// MustUnshare is like [Namespacer.Unshare], but panics with the error if
// unsharing (or persisting) fails.
func (n *Namespacer) MustUnshare(flags FlagSet, opts ...UnshareOption) Status {
	status, err := n.Unshare(flags, opts...)
	if err != nil {
		panic(err)
	}
	return status
}
