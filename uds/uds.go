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

package uds

import (
	"errors"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// ErrNoSocket is returned by [FromFd] when the passed file descriptor doesn't
// reference a unix domain socket.
var ErrNoSocket = errors.New("not a unix domain socket")

// Conn is a (sequenced-packet) unix domain socket connection that passes open
// file descriptors, such as namespace references, alongside the data it sends.
// Each Send is received by exactly one Receive.
type Conn struct {
	*net.UnixConn
}

// Pair returns a pair of connected (sequenced-packet) unix domain sockets. Typically,
// one end stays with the parent process while the other end is handed to a
// child process via [exec.Cmd.ExtraFiles], see [Conn.File].
func Pair() (parent, child *Conn, err error) {
	fdpair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	parent, err = FromFd(fdpair[0], "parent")
	if err != nil {
		// FromFd has already closed fdpair[0].
		_ = unix.Close(fdpair[1])
		return nil, nil, err
	}
	child, err = FromFd(fdpair[1], "child")
	if err != nil {
		_ = parent.Close()
		return nil, nil, err
	}
	return parent, child, nil
}

// FromFd returns a Conn for the passed unix domain socket file descriptor,
// such as fd 3 inherited by a child process.
//
// FromFd always takes ownership of the passed file descriptor and closes it,
// even in case of error. The returned Conn uses its own duplicate.
func FromFd(fd int, name string) (*Conn, error) {
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, errors.New("not a file descriptor")
	}
	defer func() { _ = f.Close() }()
	netconn, err := net.FileConn(f)
	if err != nil {
		return nil, err
	}
	unixconn, ok := netconn.(*net.UnixConn)
	if !ok {
		_ = netconn.Close()
		return nil, ErrNoSocket
	}
	return &Conn{UnixConn: unixconn}, nil
}

// Send the passed data together with the passed file descriptors in a single
// SCM_RIGHTS control message. Send does not close the passed file descriptors.
func (c *Conn) Send(b []byte, fds ...int) error {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	_, _, err := c.WriteMsgUnix(b, oob, nil)
	return err
}

// Receive data into b together with at most maxfds file descriptors, returning
// the number of data bytes received and the received file descriptors, if
// any. Control messages other than SCM_RIGHTS are skipped. The caller takes
// ownership of the returned file descriptors.
func (c *Conn) Receive(b []byte, maxfds int) (n int, fds []int, err error) {
	// unix.CmsgSpace accounts for the control message header overhead.
	oob := make([]byte, unix.CmsgSpace(maxfds*4))
	n, noob, _, _, err := c.ReadMsgUnix(b, oob)
	if err != nil {
		return 0, nil, err
	}
	cms, err := unix.ParseSocketControlMessage(oob[:noob])
	if err != nil {
		return 0, nil, err
	}
	for _, cm := range cms {
		if cm.Header.Level != unix.SOL_SOCKET || cm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		rights, err := unix.ParseUnixRights(&cm)
		if err != nil {
			closeAll(fds)
			return 0, nil, err
		}
		fds = append(fds, rights...)
	}
	return n, fds, nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
