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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Slot is the placeholder in a [Template] that gets replaced by the canonical
// name of a namespace type.
const Slot = "%s"

// Template is a path template with exactly one [Slot], such as
// “/run/ns/%s”. The zero value is an unset template.
type Template struct {
	format string
}

// ParseTemplate returns a validated Template. The template must contain
// exactly one “%s” slot; a literal “%” needs to be written as “%%”.
func ParseTemplate(format string) (Template, error) {
	if format == "" {
		return Template{}, &UsageError{Reason: "empty path template"}
	}
	verbs := strings.Count(strings.ReplaceAll(format, "%%", ""), "%")
	if verbs != 1 || !strings.Contains(strings.ReplaceAll(format, "%%", ""), Slot) {
		return Template{}, &UsageError{
			Reason: fmt.Sprintf("path template %q must contain exactly one %s slot", format, Slot)}
	}
	return Template{format: format}, nil
}

// MustParseTemplate is like [ParseTemplate], but panics on invalid templates.
func MustParseTemplate(format string) Template {
	tmpl, err := ParseTemplate(format)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// IsZero returns true if the template is unset.
func (t Template) IsZero() bool { return t.format == "" }

// String returns the template in its textual form.
func (t Template) String() string { return t.format }

// Path returns the path for the passed namespace type, filling the slot with
// the type's canonical name (or its procfs name if there is no canonical
// name).
func (t Template) Path(f Flag) string {
	name, ok := f.Name()
	if !ok {
		name = f.ProcName()
	}
	return fmt.Sprintf(t.format, name)
}

// NewPinTemplate returns a template for pinning namespaces below dir, in the
// form of “dir/<type>ns/<uuid>”. Every call returns a template with a fresh
// UUID, so namespaces pinned with different templates never collide.
func NewPinTemplate(dir string) Template {
	return Template{
		format: filepath.Join(strings.ReplaceAll(dir, "%", "%%"), Slot+"ns", uuid.New().String()),
	}
}

// Prepare creates the (empty) mount point files for all namespace types in
// flags, including missing parent directories.
func (t Template) Prepare(flags FlagSet) error {
	if t.IsZero() {
		return &UsageError{Reason: "option to or format required"}
	}
	for f := range flags.All() {
		if err := EnsureMountPoint(t.Path(f)); err != nil {
			return err
		}
	}
	return nil
}

// EnsureMountPoint creates an empty regular file at path if nothing exists
// there yet; an existing file or directory is left untouched.
func EnsureMountPoint(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create mount point directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("cannot create mount point: %w", err)
	}
	return f.Close()
}
