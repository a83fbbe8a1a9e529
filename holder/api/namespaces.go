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

package api

import (
	"maps"
	"slices"

	"github.com/thediveo/spaceport"
	"golang.org/x/sys/unix"
)

// NamespacesRequest requests references to the holder's own namespaces of the
// types in Spaces.
type NamespacesRequest struct {
	Spaces spaceport.FlagSet
}

// RoomsRequest requests new namespaces of the types in Spaces, created from
// inside the holder's namespaces and thus owned by the holder's user
// namespace. Spaces must not contain user and PID namespaces.
type RoomsRequest struct {
	Spaces spaceport.FlagSet
}

// NamespacesResponse returns open file descriptors referencing namespaces,
// keyed by the type of namespace. The receiver takes ownership of the file
// descriptors.
type NamespacesResponse struct {
	Namespaces map[spaceport.Flag]int
}

var (
	_ Request = (*NamespacesRequest)(nil)
	_ Request = (*RoomsRequest)(nil)

	_ Response   = (*NamespacesResponse)(nil)
	_ FdsEncoder = (*NamespacesResponse)(nil)
	_ FdsDecoder = (*NamespacesResponse)(nil)
)

func (NamespacesRequest) request()   {}
func (RoomsRequest) request()        {}
func (NamespacesResponse) response() {}

// EncodeFds returns the file descriptors of the response in the order of their
// namespace types, removing them from the response so they don't get
// transferred in-band.
func (r *NamespacesResponse) EncodeFds() []int {
	var fds []int
	for _, typ := range slices.Sorted(maps.Keys(r.Namespaces)) {
		fds = append(fds, r.Namespaces[typ])
	}
	r.Namespaces = nil
	return fds
}

// DecodeFds sorts the passed file descriptors into the response by the type of
// namespace they reference. DecodeFds closes file descriptors not referencing
// a namespace, as well as duplicates of the same type.
func (r *NamespacesResponse) DecodeFds(fds []int) {
	r.Namespaces = map[spaceport.Flag]int{}
	for _, fd := range fds {
		typ, err := spaceport.Type(fd)
		if err != nil {
			_ = unix.Close(fd)
			continue
		}
		if _, ok := r.Namespaces[typ]; ok {
			_ = unix.Close(fd)
			continue
		}
		r.Namespaces[typ] = fd
	}
}

// Close all file descriptors of the response.
func (r *NamespacesResponse) Close() {
	for _, fd := range r.Namespaces {
		_ = unix.Close(fd)
	}
	r.Namespaces = nil
}
