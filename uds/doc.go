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
Package uds passes open file descriptors, such as namespace references,
between processes over connected unix domain sockets of type SOCK_SEQPACKET,
which keep message boundaries.

Why a [net.UnixConn]? Because it has ReadMsgUnix and WriteMsgUnix methods for
receiving and sending “ancillary data”, see [sendmsg(2)], and thus SCM_RIGHTS
control messages with file descriptors.

[sendmsg(2)]: https://www.man7.org/linux/man-pages/man2/sendmsg.2.html
*/
package uds
