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
	"runtime"

	"github.com/spf13/cobra"
	"github.com/thediveo/spaceport"
)

func newUnshareCmd(c *cli) *cobra.Command {
	var types, persistTo string
	var mountPoints bool
	cmd := &cobra.Command{
		Use:   "unshare --ns TYPES [--persist-to TEMPLATE] [-- COMMAND [ARG...]]",
		Short: "Run a command in new namespaces",
		Long: `Run a command in new namespaces, optionally persisting the new namespaces.

A new PID namespace only applies to children of the command, not to the
command itself. User namespaces cannot be unshared, use "clone" instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := spaceport.ParseFlagSet(types)
			if err != nil {
				return err
			}
			var opts []spaceport.UnshareOption
			if persistTo != "" {
				opts = append(opts, spaceport.PersistTo(persistTo))
			}
			if mountPoints {
				opts = append(opts, spaceport.WithMountPoints())
			}
			// the namespaces are those of this thread, which we then
			// replace with the command.
			runtime.LockOSThread()
			if _, err := c.ns.Unshare(flags, opts...); err != nil {
				return err
			}
			return execCommand(args)
		},
	}
	cmd.Flags().StringVar(&types, "ns", "", "comma-separated list of namespace types")
	cmd.Flags().StringVar(&persistTo, "persist-to", "", "path template for persisting the new namespaces")
	cmd.Flags().BoolVar(&mountPoints, "mount-points", false, "create missing mount points when persisting")
	_ = cmd.MarkFlagRequired("ns")
	return cmd
}
