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
	"fmt"
	"reflect"

	"github.com/thediveo/ioctl"
	"golang.org/x/sys/unix"
)

// Reference is a Linux kernel namespace reference in VFS path textual form or
// as an open file descriptor
type Reference interface{ ~int | ~string }

// Linux kernel [ioctl(2)] command for [namespace relationship queries].
//
// [ioctl(2)]: https://man7.org/linux/man-pages/man2/ioctl.2.html
// [namespace relationship queries]: https://elixir.bootlin.com/linux/v6.2.11/source/include/uapi/linux/nsfs.h
const _NSIO = 0xb7

// NS_GET_NSTYPE returns the type of namespace CLONE_NEW* value referred to by
// a file descriptor.
var NS_GET_NSTYPE = ioctl.IO(_NSIO, 0x3)

// Type returns the type of the Linux kernel namespace referenced either by a
// file descriptor or a VFS path name.
func Type[R Reference](ref R) (Flag, error) {
	switch v := reflect.ValueOf(ref); v.Kind() {
	case reflect.Int:
		fd := int(v.Int())
		typ, err := unix.IoctlRetInt(fd, NS_GET_NSTYPE)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace fd %d: %w", fd, err)
		}
		return Flag(typ), nil
	case reflect.String:
		path := v.String()
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace referenced as %q: %w", path, err)
		}
		defer func() { _ = unix.Close(fd) }()
		typ, err := unix.IoctlRetInt(fd, NS_GET_NSTYPE)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace referenced as %q: %w", path, err)
		}
		return Flag(typ), nil
	}
	return 0, fmt.Errorf("unsupported namespace reference %v", ref)
}

// Ino returns the identification (inode number) of the passed Linux kernel
// namespace that is either referenced by a file descriptor or a VFS path name.
// Two references refer to the same namespace if their inode numbers are
// equal.
func Ino[R Reference](ref R) (uint64, error) {
	var namespaceStat unix.Stat_t
	switch v := reflect.ValueOf(ref); v.Kind() {
	case reflect.Int:
		if err := unix.Fstat(int(v.Int()), &namespaceStat); err != nil {
			return 0, fmt.Errorf("cannot stat namespace reference %d: %w", v.Int(), err)
		}
	case reflect.String:
		if err := unix.Stat(v.String(), &namespaceStat); err != nil {
			return 0, fmt.Errorf("cannot stat namespace reference %q: %w", v.String(), err)
		}
	default:
		return 0, fmt.Errorf("unsupported namespace reference %v", ref)
	}
	return namespaceStat.Ino, nil
}

// CurrentIno returns the identification (inode number) of the namespace of
// the specified type the calling OS-level thread is attached to.
func CurrentIno(flag Flag) (uint64, error) {
	return Ino(nsPath(0, flag.ProcName()))
}
