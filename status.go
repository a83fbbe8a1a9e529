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
	"strings"
)

// Status is the outcome of a namespace operation. Negative values indicate
// failure, in which case the operation additionally returns a non-nil error.
// Non-negative values indicate success; their meaning depends on the
// particular operation, such as the number of namespaces joined.
type Status int

// Failed is the Status returned by any failed operation.
const Failed Status = -1

// Ok returns true for non-negative status values.
func (s Status) Ok() bool { return s >= 0 }

// ErrUsage is matched (using [errors.Is]) by all errors caused by a caller
// passing incomplete or invalid arguments. Usage errors are always reported
// before touching any namespace.
var ErrUsage = errors.New("usage error")

// UsageError describes which argument requirement the caller failed to meet.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

// Is matches [ErrUsage].
func (e *UsageError) Is(target error) bool { return target == ErrUsage }

// PrimitiveError reports a failed kernel primitive, such as unshare(2),
// setns(2), or a bind mount. It unwraps to the underlying error, so callers
// can check for specific errnos, like unix.EPERM.
type PrimitiveError struct {
	Op    string  // unshare, setns, persist, clone, ...
	Flags FlagSet // namespace type(s) involved
	Path  string  // path involved, if any
	Err   error
}

func (e *PrimitiveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Flags != 0 {
		b.WriteString(" ")
		b.WriteString(e.Flags.String())
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *PrimitiveError) Unwrap() error { return e.Err }
