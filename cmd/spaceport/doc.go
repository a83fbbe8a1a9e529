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
Command spaceport creates, enters, persists, and unpersists Linux-kernel
namespaces.

	spaceport unshare --ns mount,uts [--persist-to /run/ns/%s] [-- COMMAND [ARG...]]
	spaceport enter (--pid PID | --fd PATH) [--ns TYPES] [-- COMMAND [ARG...]]
	spaceport persist --pid PID --ns TYPES --to TEMPLATE
	spaceport unpersist [--remove] PATH...
	spaceport clone --ns TYPES [--map-root] -- COMMAND [ARG...]
	spaceport hold --ns TYPES (--to TEMPLATE | --pin-dir DIR)
	spaceport names

Namespace types are given as comma-separated lists of their canonical names
(mount, uts, ipc, user, net, cgroup) or their procfs names (mnt, pid, ...).
Path templates contain a single “%s” slot that gets replaced by the canonical
name of each type of namespace.
*/
package main
