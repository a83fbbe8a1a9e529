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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
)

func newPersistCmd(c *cli) *cobra.Command {
	var types, to string
	var pid int
	var mountPoints bool
	cmd := &cobra.Command{
		Use:   "persist --pid PID --ns TYPES --to TEMPLATE",
		Short: "Persist the namespaces of a process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags, err := spaceport.ParseFlagSet(types)
			if err != nil {
				return err
			}
			var tmpl spaceport.Template
			if to != "" {
				if tmpl, err = spaceport.ParseTemplate(to); err != nil {
					return err
				}
			}
			if mountPoints && !tmpl.IsZero() {
				if err := tmpl.Prepare(flags); err != nil {
					return err
				}
			}
			return c.ns.PersistAll(pid, flags, tmpl)
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 0, "PID of the process whose namespaces to persist")
	cmd.Flags().StringVar(&types, "ns", "", "comma-separated list of namespace types")
	cmd.Flags().StringVar(&to, "to", "", "path template for persisting the namespaces")
	cmd.Flags().BoolVar(&mountPoints, "mount-points", false, "create missing mount points")
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("ns")
	return cmd
}

func newUnpersistCmd(c *cli) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "unpersist [--remove] PATH...",
		Short: "Unpersist persisted namespaces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				if err := c.ns.Unpersist(path); err != nil {
					errs = append(errs, err)
					continue
				}
				if remove {
					if err := os.Remove(path); err != nil {
						errs = append(errs, fmt.Errorf("cannot remove mount point: %w", err))
					}
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the mount points after unpersisting")
	return cmd
}
