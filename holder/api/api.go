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

// Package api defines the messages exchanged between a namespace holder client
// and the holder service running in its own child process.
//
// Requests and responses are transferred in gob form; namespace references
// travel out-of-band as SCM_RIGHTS file descriptors.
package api

import (
	"encoding/gob"
)

type (
	// FdsEncoder is implemented by messages carrying file descriptors. Before
	// sending, EncodeFds hands out the file descriptors to transfer
	// out-of-band.
	FdsEncoder interface{ EncodeFds() (fds []int) }
	// FdsDecoder is implemented by messages carrying file descriptors. After
	// receiving, DecodeFds takes ownership of the transferred file
	// descriptors.
	FdsDecoder interface{ DecodeFds(fds []int) }
)

type (
	Request  interface{ request() }
	Response interface{ response() }
)

// ErrorResponse can be transferred in place of any other response.
type ErrorResponse struct {
	Reason string
}

var _ Response = (*ErrorResponse)(nil)

func (ErrorResponse) response() {}

// Error returns the reason of failure.
func (e ErrorResponse) Error() string { return e.Reason }

// Register the individual request and response types for gob's interface
// polymorphy.
func init() {
	gob.Register(&ErrorResponse{})

	gob.Register(&NamespacesRequest{})
	gob.Register(&RoomsRequest{})
	gob.Register(&NamespacesResponse{})
}
